package internal

import (
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// FilterFunc is a named unary transformation applied in a filter pipeline.
type FilterFunc func(value any) (any, error)

// Built-in filter names
const (
	FilterNameUpper      = "upper"
	FilterNameLower      = "lower"
	FilterNameTitle      = "title"
	FilterNameCapitalize = "capitalize"
	FilterNameTrim       = "trim"
	FilterNameReverse    = "reverse"
	FilterNameLength     = "length"
	FilterNameFirst      = "first"
	FilterNameLast       = "last"
	FilterNameJoin       = "join"
	FilterNameSort       = "sort"
	FilterNameEscape     = "escape"
	FilterNameURLEncode  = "urlencode"
	FilterNameJSON       = "json"
	FilterNameYAML       = "yaml"
	FilterNameString     = "string"
)

// JoinSeparator is placed between elements by the join filter
const JoinSeparator = ", "

// Filter error messages
const (
	ErrMsgFilterExpectedSequence = "expected a sequence"
	ErrMsgFilterNoLength         = "value has no length"
	ErrMsgFilterEncode           = "encoding failed"
)

// BuiltinFilters returns a fresh map holding every built-in filter.
func BuiltinFilters() map[string]FilterFunc {
	return map[string]FilterFunc{
		FilterNameUpper:      stringFilter(upper),
		FilterNameLower:      stringFilter(lower),
		FilterNameTitle:      stringFilter(title),
		FilterNameCapitalize: stringFilter(capitalize),
		FilterNameTrim:       stringFilter(strings.TrimSpace),
		FilterNameEscape:     stringFilter(html.EscapeString),
		FilterNameURLEncode:  stringFilter(url.QueryEscape),
		FilterNameString:     func(v any) (any, error) { return Stringify(v), nil },
		FilterNameReverse:    reverseFilter,
		FilterNameLength:     lengthFilter,
		FilterNameFirst:      firstFilter,
		FilterNameLast:       lastFilter,
		FilterNameJoin:       joinFilter,
		FilterNameSort:       sortFilter,
		FilterNameJSON:       jsonFilter,
		FilterNameYAML:       yamlFilter,
	}
}

func stringFilter(fn func(string) string) FilterFunc {
	return func(v any) (any, error) {
		return fn(Stringify(v)), nil
	}
}

// A cases.Caser is stateful and must not be shared between goroutines, so
// every call builds its own.
func upper(s string) string { return cases.Upper(language.Und).String(s) }

func lower(s string) string { return cases.Lower(language.Und).String(s) }

func title(s string) string { return cases.Title(language.Und).String(s) }

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return upper(string(r)) + lower(s[size:])
}

// reverseFilter reverses strings by character and sequences by element.
func reverseFilter(v any) (any, error) {
	if s, ok := v.(string); ok {
		runes := []rune(s)
		slices.Reverse(runes)
		return string(runes), nil
	}
	items, err := collect(FilterNameReverse, v)
	if err != nil {
		return nil, err
	}
	slices.Reverse(items)
	return items, nil
}

func lengthFilter(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case string:
		return utf8.RuneCountInString(val), nil
	}
	rv := indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return rv.Len(), nil
	case reflect.String:
		return utf8.RuneCountInString(rv.String()), nil
	}
	return nil, NewFilterError(ErrMsgFilterNoLength, FilterNameLength, nil)
}

func firstFilter(v any) (any, error) {
	items, err := collect(FilterNameFirst, v)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

func lastFilter(v any) (any, error) {
	items, err := collect(FilterNameLast, v)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[len(items)-1], nil
}

func joinFilter(v any) (any, error) {
	items, err := collect(FilterNameJoin, v)
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = Stringify(item)
	}
	return strings.Join(parts, JoinSeparator), nil
}

// sortFilter orders numbers numerically and everything else by string form.
func sortFilter(v any) (any, error) {
	items, err := collect(FilterNameSort, v)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(items, compareValues)
	return items, nil
}

func jsonFilter(v any) (any, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return nil, NewFilterError(ErrMsgFilterEncode, FilterNameJSON, err)
	}
	return string(out), nil
}

func yamlFilter(v any) (any, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return nil, NewFilterError(ErrMsgFilterEncode, FilterNameYAML, err)
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}

// collect materializes any iterable into a fresh slice.
func collect(filter string, v any) ([]any, error) {
	seq, ok := Iterate(v)
	if !ok {
		return nil, NewFilterError(ErrMsgFilterExpectedSequence, filter, nil)
	}
	var items []any
	for item := range seq {
		items = append(items, item)
	}
	return items, nil
}

func compareValues(a, b any) int {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	switch {
	case aNum && bNum:
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case aNum:
		return -1
	case bNum:
		return 1
	}
	return strings.Compare(Stringify(a), Stringify(b))
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// FilterError represents a failure inside a built-in filter
type FilterError struct {
	Message string
	Filter  string
	Cause   error
}

// NewFilterError creates a new filter error
func NewFilterError(message, filter string, cause error) *FilterError {
	return &FilterError{
		Message: message,
		Filter:  filter,
		Cause:   cause,
	}
}

// Error implements the error interface
func (e *FilterError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("filter %s: %s: %v", e.Filter, e.Message, e.Cause)
	}
	return fmt.Sprintf("filter %s: %s", e.Filter, e.Message)
}

// Unwrap returns the underlying cause
func (e *FilterError) Unwrap() error {
	return e.Cause
}
