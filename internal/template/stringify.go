package template

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Stringify converts any value to a string representation. Maps and slices
// are JSON-marshaled so values embed as valid JSON rather than Go's
// "map[foo:bar]" format.
func Stringify(val any) string {
	if val == nil {
		return ""
	}

	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}

	rv := reflect.ValueOf(val)
	kind := rv.Kind()

	if kind == reflect.Map || kind == reflect.Slice || kind == reflect.Array {
		if b, err := json.Marshal(val); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", val)
	}

	return fmt.Sprintf("%v", val)
}
