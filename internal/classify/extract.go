package classify

import (
	"fmt"
	"reflect"
	"strings"
)

// nameKeys are the payload fields known to carry the state name across
// runtime versions, probed in order.
var nameKeys = []string{"name", "id", "state"}

// StateName extracts a raw state name from a vendor event payload.
// The payload shape varies across runtime builds: a bare string, a map
// keyed by one of nameKeys, or a typed struct exposing the same
// fields. Anything else is stringified best-effort so classification
// still lands on a defined bucket.
func StateName(payload any) string {
	switch v := payload.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case map[string]any:
		for _, key := range nameKeys {
			if s, ok := v[key].(string); ok && s != "" {
				return s
			}
		}
		return fmt.Sprintf("%v", v)
	case map[string]string:
		for _, key := range nameKeys {
			if s := v[key]; s != "" {
				return s
			}
		}
		return fmt.Sprintf("%v", v)
	default:
		if s, ok := structName(v); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
}

// structName probes exported string fields matching nameKeys on struct
// payloads (and pointers to them).
func structName(payload any) (string, bool) {
	rv := reflect.ValueOf(payload)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return "", false
	}
	rt := rv.Type()
	for _, key := range nameKeys {
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			if !f.IsExported() || f.Type.Kind() != reflect.String {
				continue
			}
			if !strings.EqualFold(f.Name, key) {
				continue
			}
			if s := rv.Field(i).String(); s != "" {
				return s, true
			}
		}
	}
	return "", false
}
