package expr

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Key locates a value within a record. Each component is either a field name (string) or a list index (int).
type Key []any

func (key Key) String() string {
	var builder strings.Builder

	for i, component := range key {
		if index, ok := component.(int); ok {
			fmt.Fprintf(&builder, "[%d]", index)
			continue
		}

		if i > 0 {
			builder.WriteByte('.')
		}

		fmt.Fprint(&builder, component)
	}

	return builder.String()
}

// ParseKey parses a dotted key such as "a.b[0].c". Purely numeric components are list indexes.
func ParseKey(s string) (Key, error) {
	if s == "" {
		return Key{}, nil
	}

	var key Key

	for _, part := range strings.Split(s, ".") {
		name := part
		var indexes []int

		for strings.HasSuffix(name, "]") {
			open := strings.LastIndexByte(name, '[')
			if open < 0 {
				return nil, fmt.Errorf("unbalanced brackets in key '%s'", s)
			}

			index, err := strconv.Atoi(name[open+1 : len(name)-1])
			if err != nil {
				return nil, fmt.Errorf("invalid index in key '%s': %w", s, err)
			}

			indexes = append([]int{index}, indexes...)
			name = name[:open]
		}

		switch {
		case name == "" && len(indexes) == 0:
			return nil, fmt.Errorf("empty component in key '%s'", s)
		case name == "":
		default:
			if index, err := strconv.Atoi(name); err == nil {
				key = append(key, index)
			} else {
				key = append(key, name)
			}
		}

		for _, index := range indexes {
			key = append(key, index)
		}
	}

	return key, nil
}

// Tuple is an ordered sequence which is evaluated exactly like a list.
type Tuple []any

// Resolve walks key through record. A string component applied to a list is projected over every element of that
// list. The returned bool is false when some component could not be found.
func Resolve(record any, key Key) (any, bool) {
	value := scalar(record)

	for i, component := range key {
		if value == nil {
			return nil, false
		}

		if name, ok := component.(string); ok {
			if items, isList := listItems(value); isList {
				projected := make([]any, 0, len(items))
				for _, item := range items {
					v, _ := Resolve(item, append(Key{name}, key[i+1:]...))
					projected = append(projected, v)
				}

				return projected, true
			}
		}

		next, found := lookup(value, component)
		if !found {
			return nil, false
		}

		value = scalar(next)
	}

	return value, true
}

func lookup(value any, component any) (any, bool) {
	switch v := value.(type) {
	case map[string]any:
		name, ok := component.(string)
		if !ok {
			return nil, false
		}

		next, found := v[name]
		return next, found
	case map[any]any:
		next, found := v[component]
		return next, found
	}

	if index, ok := component.(int); ok {
		if items, isList := listItems(value); isList {
			if index < 0 {
				index += len(items)
			}

			if index < 0 || index >= len(items) {
				return nil, false
			}

			return items[index], true
		}

		return nil, false
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map {
		return nil, false
	}

	mapKey := reflect.ValueOf(component)
	if !mapKey.Type().ConvertibleTo(rv.Type().Key()) {
		return nil, false
	}

	next := rv.MapIndex(mapKey.Convert(rv.Type().Key()))
	if !next.IsValid() {
		return nil, false
	}

	return next.Interface(), true
}

// scalar converts json.Number values into their natural numeric type so that records decoded with UseNumber behave
// like records built in code.
func scalar(value any) any {
	n, ok := value.(json.Number)
	if !ok {
		return value
	}

	if i, err := n.Int64(); err == nil {
		return i
	}

	if f, err := n.Float64(); err == nil {
		return f
	}

	return n.String()
}

func listItems(value any) ([]any, bool) {
	switch v := value.(type) {
	case nil, string, []byte:
		return nil, false
	case []any:
		return v, true
	case Tuple:
		return v, true
	case []string:
		items := make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
		return items, true
	case []map[string]any:
		items := make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
		return items, true
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}

	return items, true
}

type entry struct {
	key   any
	value any
}

// mapEntries returns the entries of a map value ordered by the textual form of their keys.
func mapEntries(value any) ([]entry, bool) {
	var entries []entry

	switch v := value.(type) {
	case map[string]any:
		entries = make([]entry, 0, len(v))
		for k, e := range v {
			entries = append(entries, entry{k, e})
		}
	case map[any]any:
		entries = make([]entry, 0, len(v))
		for k, e := range v {
			entries = append(entries, entry{k, e})
		}
	default:
		rv := reflect.ValueOf(value)
		if value == nil || rv.Kind() != reflect.Map {
			return nil, false
		}

		entries = make([]entry, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			entries = append(entries, entry{iter.Key().Interface(), iter.Value().Interface()})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return formatValue(entries[i].key) < formatValue(entries[j].key)
	})

	return entries, true
}

func isContainer(value any) bool {
	if _, ok := listItems(value); ok {
		return true
	}

	_, ok := mapEntries(value)
	return ok
}

// toFloat converts value the way a float() conversion would: numbers and bools always convert, strings only when
// they hold a decimal number.
func toFloat(value any) (float64, bool) {
	switch v := scalar(value).(type) {
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		return parseFloat(v)
	case []byte:
		return parseFloat(string(v))
	default:
		return 0, false
	}
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "xX_") {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}

	return f, true
}

func isFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// formatFloat renders f the same way on every platform: integral values keep a trailing ".0" and very small or very
// large magnitudes switch to exponent notation.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}

	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}

	return s
}

// formatValue returns the textual form of value used for string comparisons.
func formatValue(value any) string {
	switch v := scalar(value).(type) {
	case nil:
		return "None"
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		if v {
			return "True"
		}
		return "False"
	case float32:
		return formatFloat(float64(v))
	case float64:
		return formatFloat(v)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	}

	if items, ok := listItems(value); ok {
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = reprValue(item)
		}

		if _, isTuple := value.(Tuple); isTuple {
			if len(parts) == 1 {
				return "(" + parts[0] + ",)"
			}
			return "(" + strings.Join(parts, ", ") + ")"
		}

		return "[" + strings.Join(parts, ", ") + "]"
	}

	if entries, ok := mapEntries(value); ok {
		parts := make([]string, len(entries))
		for i, e := range entries {
			parts[i] = reprValue(e.key) + ": " + reprValue(e.value)
		}

		return "{" + strings.Join(parts, ", ") + "}"
	}

	return fmt.Sprint(value)
}

func reprValue(value any) string {
	switch v := value.(type) {
	case string:
		return "'" + v + "'"
	default:
		return formatValue(v)
	}
}

// truthy reports whether value is non-zero, non-empty and non-nil.
func truthy(value any) bool {
	switch v := scalar(value).(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case []byte:
		return len(v) > 0
	}

	if f, ok := toFloat(value); ok {
		return f != 0
	}

	if items, ok := listItems(value); ok {
		return len(items) > 0
	}

	if entries, ok := mapEntries(value); ok {
		return len(entries) > 0
	}

	return true
}

// Walk calls visit with each leaf value of record, taking map values in key order. It returns false as soon as visit
// does.
func Walk(record any, visit func(leaf any) bool) bool {
	value := scalar(record)

	if items, ok := listItems(value); ok {
		for _, item := range items {
			if !Walk(item, visit) {
				return false
			}
		}

		return true
	}

	if entries, ok := mapEntries(value); ok {
		for _, e := range entries {
			if !Walk(e.value, visit) {
				return false
			}
		}

		return true
	}

	return visit(value)
}
