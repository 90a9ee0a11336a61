package expr

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?$`)

// Operand is the right hand side of a comparison. A single operand carries its text along with its numeric form when
// the text is a number; a list operand carries only its items.
type Operand struct {
	text     string
	number   float64
	numeric  bool
	constant bool

	list []*Operand
}

// NewOperand wraps value as an operand. Strings are parsed for a numeric form, numbers keep their value, and slices
// become list operands.
func NewOperand(value any) *Operand {
	switch v := value.(type) {
	case *Operand:
		return v
	case string:
		return newTextOperand(v)
	case []string:
		list := make([]*Operand, len(v))
		for i, item := range v {
			list[i] = newTextOperand(item)
		}
		return &Operand{list: list}
	case []*Operand:
		return &Operand{list: v}
	case []any:
		list := make([]*Operand, len(v))
		for i, item := range v {
			list[i] = NewOperand(item)
		}
		return &Operand{list: list}
	case nil:
		return newTextOperand("")
	case bool:
		if v {
			return newTextOperand("true")
		}
		return newTextOperand("false")
	}

	if f, ok := toFloat(value); ok {
		return &Operand{
			text:    formatValue(value),
			number:  f,
			numeric: !math.IsInf(f, 0) && !math.IsNaN(f),
		}
	}

	return newTextOperand(formatValue(value))
}

func newTextOperand(text string) *Operand {
	operand := &Operand{text: text}

	switch strings.ToLower(text) {
	case "true":
		operand.number, operand.numeric, operand.constant = 1, true, true
		return operand
	case "false":
		operand.number, operand.numeric, operand.constant = 0, true, true
		return operand
	}

	if !numberPattern.MatchString(text) {
		return operand
	}

	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		operand.number, operand.numeric = float64(i), true
		return operand
	}

	if f, err := strconv.ParseFloat(text, 64); err == nil && !math.IsInf(f, 0) {
		operand.number, operand.numeric = f, true
	}

	return operand
}

// Text returns the operand's original text.
func (operand *Operand) Text() string {
	return operand.text
}

// Number returns the numeric form of the operand. The bool is false when the operand is not a number; the boolean
// constants "true" and "false" are not numbers here even though they compare numerically.
func (operand *Operand) Number() (float64, bool) {
	if !operand.numeric || operand.constant || operand.list != nil {
		return 0, false
	}

	return operand.number, true
}

// IsNumeric reports whether the operand is a number.
func (operand *Operand) IsNumeric() bool {
	_, ok := operand.Number()
	return ok
}

// IsList reports whether the operand holds a list of operands.
func (operand *Operand) IsList() bool {
	return operand.list != nil
}

// List returns the items of a list operand, or nil for a single operand.
func (operand *Operand) List() []*Operand {
	return operand.list
}

// items returns the operands a comparison must try, one for a single operand.
func (operand *Operand) items() []*Operand {
	if operand.list != nil {
		return operand.list
	}

	return []*Operand{operand}
}

func (operand *Operand) String() string {
	if operand.list == nil {
		return operand.text
	}

	texts := make([]string, len(operand.list))
	for i, item := range operand.list {
		texts[i] = item.String()
	}

	return "(" + strings.Join(texts, " ") + ")"
}
