package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperandString(t *testing.T) {
	operand := NewOperand("abc")

	assert.Equal(t, "abc", operand.Text())
	assert.False(t, operand.IsNumeric())

	_, ok := operand.Number()
	assert.False(t, ok)
}

func TestOperandInt(t *testing.T) {
	operand := NewOperand("123")

	n, ok := operand.Number()
	assert.True(t, ok)
	assert.Equal(t, 123.0, n)
	assert.Equal(t, "123", operand.Text())
}

func TestOperandFloat(t *testing.T) {
	operand := NewOperand("123.456")

	n, ok := operand.Number()
	assert.True(t, ok)
	assert.Equal(t, 123.456, n)
	assert.Equal(t, "123.456", operand.Text())
}

func TestOperandInvalidNumber(t *testing.T) {
	for _, text := range []string{"123.456.789", "1e", "0x10", "1_000", "inf", "nan", " 1", "1e999"} {
		operand := NewOperand(text)

		assert.False(t, operand.IsNumeric(), text)
		assert.Equal(t, text, operand.Text())
	}
}

func TestOperandConstants(t *testing.T) {
	for _, text := range []string{"true", "TRUE", "false", "False"} {
		operand := NewOperand(text)

		assert.False(t, operand.IsNumeric(), text)
		assert.True(t, operand.numeric, text)
		assert.True(t, operand.constant, text)
	}

	assert.Equal(t, 1.0, NewOperand("True").number)
	assert.Equal(t, 0.0, NewOperand("false").number)
}

func TestOperandFromValue(t *testing.T) {
	operand := NewOperand(3.14)
	assert.Equal(t, "3.14", operand.Text())

	n, ok := operand.Number()
	assert.True(t, ok)
	assert.Equal(t, 3.14, n)

	operand = NewOperand(42)
	assert.Equal(t, "42", operand.Text())

	n, ok = operand.Number()
	assert.True(t, ok)
	assert.Equal(t, 42.0, n)

	assert.Equal(t, "", NewOperand(nil).Text())
	assert.Equal(t, "true", NewOperand(true).Text())
}

func TestOperandList(t *testing.T) {
	operand := NewOperand([]string{"a", "1"})

	assert.True(t, operand.IsList())
	assert.False(t, operand.IsNumeric())
	assert.Len(t, operand.List(), 2)
	assert.Equal(t, "a", operand.List()[0].Text())
	assert.True(t, operand.List()[1].IsNumeric())
	assert.Equal(t, "(a 1)", operand.String())

	single := NewOperand("a")
	assert.False(t, single.IsList())
	assert.Nil(t, single.List())
	assert.Equal(t, []*Operand{single}, single.items())
}
