package transform

import (
	"errors"
	"fmt"
	"math"
	"path"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joshmeranda/resourcefilter/pkg/expr"
	"github.com/ncruces/go-strftime"
	"github.com/samber/lo"
)

const (
	defaultSeparator  = "/"
	defaultDateFormat = "%Y-%m-%dT%H:%M:%S"
)

func builtins() map[string]expr.Transform {
	return map[string]expr.Transform{
		"basename": expr.TransformFunc(Basename),
		"date":     expr.TransformFunc(Date),
		"error":    expr.TransformFunc(Error),
		"extract":  expr.TransformFunc(Extract),
		"firstof":  expr.TransformFunc(FirstOf),
		"join":     expr.TransformFunc(Join),
		"len":      expr.TransformFunc(Len),
		"lower":    expr.TransformFunc(Lower),
		"notnull":  expr.TransformFunc(NotNull),
		"segment":  expr.TransformFunc(Segment),
		"split":    expr.TransformFunc(Split),
		"upper":    expr.TransformFunc(Upper),
	}
}

func items(value any) ([]any, bool) {
	switch v := value.(type) {
	case nil, string, []byte:
		return nil, false
	case []any:
		return v, true
	case expr.Tuple:
		return v, true
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	result := make([]any, rv.Len())
	for i := range result {
		result[i] = rv.Index(i).Interface()
	}

	return result, true
}

func stringArg(args []any, index int, fallback string) (string, bool) {
	if index >= len(args) {
		return fallback, true
	}

	s, ok := args[index].(string)

	return s, ok
}

func intArg(args []any, index int, fallback int) (int, error) {
	if index >= len(args) {
		return fallback, nil
	}

	switch v := args[index].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("expected an integer argument but got '%s'", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected an integer argument but got %T", v)
	}
}

// Len returns the length of the first argument, or of the subject when called without arguments.
func Len(subject any, args ...any) (any, error) {
	if len(args) > 0 {
		subject = args[0]
	}

	switch v := subject.(type) {
	case string:
		return utf8.RuneCountInString(v), nil
	case nil:
		return 0, nil
	}

	rv := reflect.ValueOf(subject)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), nil
	default:
		return 0, nil
	}
}

// Basename returns the last element of a '/' separated path.
func Basename(subject any, _ ...any) (any, error) {
	s, ok := subject.(string)
	if !ok || s == "" {
		return "", nil
	}

	return path.Base(s), nil
}

// Segment returns the segment of a '/' separated path at the given index, the last segment by default. Negative
// indexes count from the end. Values without a '/' are returned unchanged.
func Segment(subject any, args ...any) (any, error) {
	s, ok := subject.(string)
	if !ok {
		return "", nil
	}

	if !strings.Contains(s, "/") {
		return s, nil
	}

	index, err := intArg(args, 0, -1)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(s, "/")
	if index < 0 {
		index += len(parts)
	}

	if index < 0 || index >= len(parts) {
		return "", nil
	}

	return parts[index], nil
}

// Join joins the items of a list, or the characters of a string, with a separator.
func Join(subject any, args ...any) (any, error) {
	separator, ok := stringArg(args, 0, defaultSeparator)
	if !ok {
		return "", nil
	}

	if s, isString := subject.(string); isString {
		return strings.Join(strings.Split(s, ""), separator), nil
	}

	values, isList := items(subject)
	if !isList {
		return "", nil
	}

	return strings.Join(lo.Map(values, func(value any, _ int) string {
		return format(value)
	}), separator), nil
}

// Split splits a string on a separator.
func Split(subject any, args ...any) (any, error) {
	separator, ok := stringArg(args, 0, defaultSeparator)
	if !ok || separator == "" {
		return "", nil
	}

	s, isString := subject.(string)
	if !isString || s == "" {
		return "", nil
	}

	return lo.Map(strings.Split(s, separator), func(part string, _ int) any {
		return part
	}), nil
}

func Lower(subject any, _ ...any) (any, error) {
	if subject == nil {
		return "", nil
	}

	return strings.ToLower(format(subject)), nil
}

func Upper(subject any, _ ...any) (any, error) {
	if subject == nil {
		return "", nil
	}

	return strings.ToUpper(format(subject)), nil
}

// NotNull drops the null items of a list. Anything other than a list yields an empty list.
func NotNull(subject any, _ ...any) (any, error) {
	values, ok := items(subject)
	if !ok {
		return []any{}, nil
	}

	return lo.Filter(values, func(value any, _ int) bool {
		return value != nil
	}), nil
}

func keyArgs(args []any) ([]expr.Key, error) {
	keys := make([]expr.Key, 0, len(args))

	for _, arg := range args {
		key, err := expr.ParseKey(format(arg))
		if err != nil {
			return nil, err
		}

		keys = append(keys, key)
	}

	return keys, nil
}

// FirstOf returns the first of the named subject fields that is set, or "" when none are.
func FirstOf(subject any, args ...any) (any, error) {
	keys, err := keyArgs(args)
	if err != nil {
		return nil, err
	}

	for _, key := range keys {
		if value, found := expr.Resolve(subject, key); found && value != nil {
			return value, nil
		}
	}

	return "", nil
}

// Extract returns the values of the named subject fields which exist, in argument order.
func Extract(subject any, args ...any) (any, error) {
	keys, err := keyArgs(args)
	if err != nil {
		return nil, err
	}

	if _, isList := items(subject); isList || reflect.ValueOf(subject).Kind() != reflect.Map {
		return []any{}, nil
	}

	values := make([]any, 0, len(keys))
	for _, key := range keys {
		if value, found := expr.Resolve(subject, key); found {
			values = append(values, value)
		}
	}

	return values, nil
}

// Date formats a datetime with a strftime format. The subject may be a time, a datetime string or a number of
// seconds since the epoch divided by unit. The optional third argument names the location used for output.
func Date(subject any, args ...any) (any, error) {
	layout, ok := stringArg(args, 0, defaultDateFormat)
	if !ok {
		return nil, fmt.Errorf("expected a format string")
	}

	unit, err := intArg(args, 1, 1)
	if err != nil {
		return nil, err
	}

	if unit <= 0 {
		return nil, fmt.Errorf("unit must be positive but was %d", unit)
	}

	location := time.Local
	if name, _ := stringArg(args, 2, ""); name != "" {
		if location, err = time.LoadLocation(name); err != nil {
			return nil, fmt.Errorf("could not load location '%s': %w", name, err)
		}
	}

	var t time.Time

	switch v := subject.(type) {
	case time.Time:
		t = v
	case string:
		if t, ok = expr.ParseDateTime(v, location); !ok {
			return "", nil
		}
	default:
		seconds, isNumber := number(subject)
		if !isNumber {
			return "", nil
		}

		seconds /= float64(unit)
		whole, fraction := math.Modf(seconds)
		t = time.Unix(int64(whole), int64(fraction*float64(time.Second)))
	}

	if len(args) > 2 {
		t = t.In(location)
	}

	return strftime.Format(layout, t), nil
}

// Error always fails, with the given message or with the subject as the message.
func Error(subject any, args ...any) (any, error) {
	if len(args) > 0 {
		return nil, errors.New(format(args[0]))
	}

	return nil, errors.New(format(subject))
}

func number(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func format(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
