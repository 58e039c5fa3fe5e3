package internal

import (
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// StructTagName is the struct tag consulted by member access (e.g. `stencil:"name"`).
const StructTagName = "stencil"

// Keyed is implemented by values that provide their own keyed lookup.
type Keyed interface {
	Lookup(key string) (any, bool)
}

// Accessor attempts one access mode for a single path step.
type Accessor func(current any, step string) (any, bool)

// DefaultAccessors is the ordered strategy list tried for every step after the
// first: keyed access, then member access, then integer index access.
var DefaultAccessors = []Accessor{KeyAccess, MemberAccess, IndexAccess}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// SplitExpression separates a variable expression into its dotted path and
// the ordered filter names, trimming whitespace around every segment.
func SplitExpression(expr string) (string, []string) {
	parts := strings.Split(expr, FilterSeparator)
	path := strings.TrimSpace(parts[0])
	if len(parts) == 1 {
		return path, nil
	}
	filters := make([]string, 0, len(parts)-1)
	for _, name := range parts[1:] {
		filters = append(filters, strings.TrimSpace(name))
	}
	return path, filters
}

// SplitPath splits a dotted path into its steps.
func SplitPath(path string) []string {
	return strings.Split(path, PathSeparator)
}

// Walk resolves steps against current, one step at a time. The first accessor
// that succeeds wins; the value is then invoked if it is a zero-argument
// function. When no accessor succeeds for a step the whole walk fails.
func Walk(current any, steps []string, accessors []Accessor) (any, bool) {
	if accessors == nil {
		accessors = DefaultAccessors
	}
	for _, step := range steps {
		next, ok := accessStep(current, step, accessors)
		if !ok {
			return nil, false
		}
		current, ok = Invoke(next)
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func accessStep(current any, step string, accessors []Accessor) (any, bool) {
	for _, access := range accessors {
		if v, ok := access(current, step); ok {
			return v, true
		}
	}
	return nil, false
}

// Invoke calls v when it is a function that accepts zero arguments and uses
// the first result as the value. A trailing non-nil error result is reported
// as a miss. Any other value is returned unchanged.
func Invoke(v any) (any, bool) {
	if v == nil {
		return nil, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Func {
		return v, true
	}
	if rv.IsNil() {
		return nil, true
	}
	t := rv.Type()
	if t.NumIn() != 0 && !(t.IsVariadic() && t.NumIn() == 1) {
		return v, true
	}

	out := rv.Call(nil)
	if len(out) == 0 {
		return nil, true
	}
	last := len(out) - 1
	if len(out) > 1 && t.Out(last) == errorType && !out[last].IsNil() {
		return nil, false
	}
	return out[0].Interface(), true
}

// KeyAccess performs mapping lookup: string-keyed maps and Keyed values.
func KeyAccess(current any, step string) (any, bool) {
	switch m := current.(type) {
	case nil:
		return nil, false
	case map[string]any:
		v, ok := m[step]
		return v, ok
	case map[string]string:
		v, ok := m[step]
		return v, ok
	case Keyed:
		return m.Lookup(step)
	}

	rv := indirect(reflect.ValueOf(current))
	if !rv.IsValid() || rv.Kind() != reflect.Map {
		return nil, false
	}
	kt := rv.Type().Key()
	if kt.Kind() != reflect.String {
		return nil, false
	}
	v := rv.MapIndex(reflect.ValueOf(step).Convert(kt))
	if !v.IsValid() {
		return nil, false
	}
	return v.Interface(), true
}

// MemberAccess performs named member lookup: exported methods and struct
// fields, matched by exact name, upper-cased first letter or stencil struct tag.
func MemberAccess(current any, step string) (any, bool) {
	if current == nil || step == "" {
		return nil, false
	}
	rv := reflect.ValueOf(current)
	if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil() {
		return nil, false
	}
	names := memberNames(step)

	if m, ok := methodByName(rv, names); ok {
		return m.Interface(), true
	}

	base := indirect(rv)
	if !base.IsValid() || base.Kind() != reflect.Struct {
		return nil, false
	}
	t := base.Type()
	for _, name := range names {
		sf, ok := t.FieldByName(name)
		if !ok || !sf.IsExported() {
			continue
		}
		if f, err := base.FieldByIndexErr(sf.Index); err == nil {
			return f.Interface(), true
		}
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if tag, _, _ := strings.Cut(sf.Tag.Get(StructTagName), ","); tag == step {
			return base.Field(i).Interface(), true
		}
	}
	return nil, false
}

// IndexAccess treats the step as an integer index into sequences, strings and
// integer-keyed maps. Negative indices count from the end.
func IndexAccess(current any, step string) (any, bool) {
	idx, err := strconv.Atoi(step)
	if err != nil {
		return nil, false
	}
	rv := indirect(reflect.ValueOf(current))
	if !rv.IsValid() {
		return nil, false
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		i, ok := normalizeIndex(idx, rv.Len())
		if !ok {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	case reflect.String:
		runes := []rune(rv.String())
		i, ok := normalizeIndex(idx, len(runes))
		if !ok {
			return nil, false
		}
		return string(runes[i]), true
	case reflect.Map:
		key, ok := intKey(idx, rv.Type().Key())
		if !ok {
			return nil, false
		}
		v := rv.MapIndex(key)
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	}
	return nil, false
}

func normalizeIndex(idx, length int) (int, bool) {
	if idx < 0 {
		idx += length
	}
	if idx < 0 || idx >= length {
		return 0, false
	}
	return idx, true
}

func intKey(idx int, kt reflect.Type) (reflect.Value, bool) {
	switch kt.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflect.ValueOf(idx).Convert(kt), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if idx < 0 {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(uint64(idx)).Convert(kt), true
	}
	return reflect.Value{}, false
}

// methodByName finds an exported method, including pointer-receiver methods
// on addressable copies of struct values.
func methodByName(rv reflect.Value, names []string) (reflect.Value, bool) {
	candidates := []reflect.Value{rv}
	if rv.Kind() == reflect.Struct {
		ptr := reflect.New(rv.Type())
		ptr.Elem().Set(rv)
		candidates = append(candidates, ptr)
	}
	for _, c := range candidates {
		for _, name := range names {
			if m := c.MethodByName(name); m.IsValid() {
				return m, true
			}
		}
	}
	return reflect.Value{}, false
}

func memberNames(step string) []string {
	r, size := utf8.DecodeRuneInString(step)
	upper := string(unicode.ToUpper(r)) + step[size:]
	if upper == step {
		return []string{step}
	}
	return []string{step, upper}
}

// indirect dereferences pointers and interfaces. A nil pointer yields an
// invalid Value.
func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}
