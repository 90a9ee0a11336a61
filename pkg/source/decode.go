package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"sigs.k8s.io/yaml"
)

// Decode reads every record in r. The input is either a stream of JSON values or YAML documents separated by '---'
// lines. A top level array yields each of its elements as a record. Numbers are kept as json.Number.
func Decode(r io.Reader) ([]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read records: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '{' || trimmed[0] == '[' {
		if records, err := decodeJSON(trimmed); err == nil {
			return records, nil
		}
	}

	var records []any

	for i, document := range splitDocuments(data) {
		if strings.TrimSpace(document) == "" {
			continue
		}

		converted, err := yaml.YAMLToJSON([]byte(document))
		if err != nil {
			return nil, fmt.Errorf("could not decode document %d: %w", i, err)
		}

		decoded, err := decodeJSON(converted)
		if err != nil {
			return nil, fmt.Errorf("could not decode document %d: %w", i, err)
		}

		records = append(records, decoded...)
	}

	return records, nil
}

func decodeJSON(data []byte) ([]any, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var records []any

	for {
		var value any

		if err := decoder.Decode(&value); errors.Is(err, io.EOF) {
			return records, nil
		} else if err != nil {
			return nil, err
		}

		switch v := value.(type) {
		case nil:
		case []any:
			records = append(records, v...)
		default:
			records = append(records, v)
		}
	}
}

// splitDocuments splits a YAML stream on its document separators.
func splitDocuments(data []byte) []string {
	var documents []string
	var current strings.Builder

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)

	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimRight(line, " \t\r") == "---" || strings.HasPrefix(line, "--- ") {
			documents = append(documents, current.String())
			current.Reset()

			if rest := strings.TrimSpace(strings.TrimPrefix(line, "---")); rest != "" {
				current.WriteString(rest)
				current.WriteByte('\n')
			}

			continue
		}

		current.WriteString(line)
		current.WriteByte('\n')
	}

	return append(documents, current.String())
}
