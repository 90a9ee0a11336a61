package source

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONArray(t *testing.T) {
	records, err := Decode(strings.NewReader(`[{"name": "a", "size": 3.14}, {"name": "b", "size": 2}]`))
	require.NoError(t, err)

	assert.Equal(t, []any{
		map[string]any{"name": "a", "size": json.Number("3.14")},
		map[string]any{"name": "b", "size": json.Number("2")},
	}, records)
}

func TestDecodeJSONStream(t *testing.T) {
	records, err := Decode(strings.NewReader("{\"a\": 1}\n{\"b\": 2}\n"))
	require.NoError(t, err)

	assert.Equal(t, []any{
		map[string]any{"a": json.Number("1")},
		map[string]any{"b": json.Number("2")},
	}, records)
}

func TestDecodeYAMLDocuments(t *testing.T) {
	input := `
name: first
labels:
  app: web
---
name: second
replicas: 3
---
# empty
---
- name: third
- name: fourth
`

	records, err := Decode(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []any{
		map[string]any{"name": "first", "labels": map[string]any{"app": "web"}},
		map[string]any{"name": "second", "replicas": json.Number("3")},
		map[string]any{"name": "third"},
		map[string]any{"name": "fourth"},
	}, records)
}

func TestDecodeEmpty(t *testing.T) {
	records, err := Decode(strings.NewReader("  \n"))
	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode(strings.NewReader("a: [b\n"))
	assert.Error(t, err)
}
