package provider

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Params is the validated option bag handed to an adapter. Values for known
// options have passed schema validation; unknown options are forwarded as-is
// for forward compatibility.
type Params map[string]any

// String returns the named option as a string, or def if absent.
func (p Params) String(name, def string) string {
	v, ok := p[name]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Int returns the named option as an int, or def if absent or unparseable.
func (p Params) Int(name string, def int) int {
	v, ok := p[name]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n
		}
	}
	return def
}

// Float returns the named option as a float64, or def if absent or unparseable.
func (p Params) Float(name string, def float64) float64 {
	v, ok := p[name]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f
		}
	}
	return def
}

// Bool returns the named option as a bool, or def if absent.
func (p Params) Bool(name string, def bool) bool {
	if v, ok := p[name].(bool); ok {
		return v
	}
	return def
}

// Has returns true if the option was supplied.
func (p Params) Has(name string) bool {
	_, ok := p[name]
	return ok
}

// Option declares the allowed values for one schema option: either a closed
// enumeration or a numeric range. Enumerations are compared on the canonical
// string form of the supplied value, so 5, "5" and 5.0 are equivalent.
type Option struct {
	Enum []string
	Min  *float64
	Max  *float64
}

// Range builds a numeric-range option.
func Range(min, max float64) Option {
	return Option{Min: &min, Max: &max}
}

// Enum builds an enumerated option.
func Enum(values ...string) Option {
	return Option{Enum: values}
}

// Schema is the per-provider parameter schema: named options mapped to their
// allowed value sets, plus defaults applied when an option is absent.
type Schema struct {
	Options  map[string]Option
	Defaults map[string]any
}

// Validate checks the supplied options against the schema and returns the
// validated bag with defaults applied. Known options are always re-validated;
// unknown options pass through untouched. It performs no network I/O and
// never retries.
func (s Schema) Validate(opts map[string]any) (Params, error) {
	out := make(Params, len(opts)+len(s.Defaults))
	for k, v := range s.Defaults {
		out[k] = v
	}
	for k, v := range opts {
		decl, known := s.Options[k]
		if known {
			if err := decl.check(k, v); err != nil {
				return nil, err
			}
		}
		out[k] = v
	}
	return out, nil
}

func (o Option) check(name string, value any) error {
	if len(o.Enum) > 0 {
		canon := canonical(value)
		for _, allowed := range o.Enum {
			if canon == allowed {
				return nil
			}
		}
		sorted := append([]string(nil), o.Enum...)
		sort.Strings(sorted)
		return &ValidationError{
			Option:  name,
			Message: fmt.Sprintf("%v is not one of [%s]", value, strings.Join(sorted, ", ")),
		}
	}
	if o.Min != nil || o.Max != nil {
		f, err := toFloat(value)
		if err != nil {
			return &ValidationError{Option: name, Message: fmt.Sprintf("%v is not numeric", value)}
		}
		if o.Min != nil && f < *o.Min {
			return &ValidationError{Option: name, Message: fmt.Sprintf("%v is below minimum %v", value, *o.Min)}
		}
		if o.Max != nil && f > *o.Max {
			return &ValidationError{Option: name, Message: fmt.Sprintf("%v is above maximum %v", value, *o.Max)}
		}
	}
	return nil
}

// canonical renders a value the way its enum members are declared.
// Whole-number floats drop the fraction so JSON-decoded 5.0 matches "5".
func canonical(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		return strconv.ParseFloat(t, 64)
	default:
		return 0, fmt.Errorf("not numeric: %T", v)
	}
}
