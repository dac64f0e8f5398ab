package airtable

import "strconv"

// Record is one row of a table. Fields is untyped because the base schema is
// user-editable; use the Fields accessors instead of indexing the map.
type Record struct {
	ID     string `json:"id"`
	Fields Fields `json:"fields"`
}

// Fields is the field mapping of a record. All accessors tolerate a nil map
// and a missing key identically.
type Fields map[string]any

// Value returns the raw field value, or def when the field is absent.
func (f Fields) Value(name string, def any) any {
	if f == nil {
		return def
	}
	v, ok := f[name]
	if !ok {
		return def
	}
	return v
}

// String returns the field as a string, or "" when absent or not a string.
func (f Fields) String(name string) string {
	s, _ := f.Value(name, "").(string)
	return s
}

// Number returns the field as a float64. The second return is false when the
// field is absent or not numeric. Numeric strings are accepted because
// user-entered bases sometimes store numbers as text.
func (f Fields) Number(name string) (float64, bool) {
	switch v := f.Value(name, nil).(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Strings returns the field as a list of strings. Link fields arrive from the
// API as []any, so both representations are handled.
func (f Fields) Strings(name string) []string {
	switch v := f.Value(name, nil).(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
