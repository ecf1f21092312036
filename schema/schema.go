// Package schema validates the structural shape of decoded JSON objects
// before handler logic runs. A schema maps field names to the kind (or kinds)
// each field must hold, or to a nested schema for sub-objects; validation is
// a depth-first walk reporting the first violation by its dotted path.
package schema

import (
	"fmt"
	"math"
	"strings"
)

// Kind enumerates the JSON value kinds a field may hold. Integer matches a
// JSON number with an integral value, Float matches any JSON number.
type Kind int

const (
	Null Kind = iota
	Boolean
	Integer
	Float
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Boolean:
		return "boolean"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Rule constrains one field: a single kind, a set of accepted kinds, or a
// nested schema for a sub-object. Build rules with Type, Types and Nested.
type Rule struct {
	kinds  []Kind
	nested Map
}

// Map describes the expected shape of one JSON object.
type Map map[string]Rule

// Type returns a rule accepting a single kind.
func Type(k Kind) Rule {
	return Rule{kinds: []Kind{k}}
}

// Types returns a rule accepting any of the given kinds.
func Types(kinds ...Kind) Rule {
	return Rule{kinds: kinds}
}

// Nested returns a rule requiring an object matching m.
func Nested(m Map) Rule {
	return Rule{nested: m}
}

// ValidationError describes the first schema violation found, by the dotted
// path of the offending key.
type ValidationError struct {
	Path     string
	Expected string
	Actual   string
	Missing  bool
}

func (e *ValidationError) Error() string {
	if e.Missing {
		return "Missing key: " + e.Path
	}
	return fmt.Sprintf("Wrong type for key '%s' (expected %s, got %s)", e.Path, e.Expected, e.Actual)
}

// Validate checks obj against s, recursing into nested rules. It is a pure
// function; the first violation is returned as a *ValidationError.
func Validate(obj map[string]any, s Map) error {
	return validate(obj, s, "")
}

func validate(obj map[string]any, s Map, path string) error {
	for key, rule := range s {
		full := key
		if path != "" {
			full = path + "." + key
		}

		val, ok := obj[key]
		if !ok {
			return &ValidationError{Path: full, Missing: true}
		}

		if rule.nested != nil {
			sub, ok := val.(map[string]any)
			if !ok {
				return &ValidationError{Path: full, Expected: Object.String(), Actual: kindName(val)}
			}
			if err := validate(sub, rule.nested, full); err != nil {
				return err
			}
			continue
		}

		if !matchesAny(val, rule.kinds) {
			return &ValidationError{Path: full, Expected: expected(rule.kinds), Actual: kindName(val)}
		}
	}
	return nil
}

func matchesAny(val any, kinds []Kind) bool {
	for _, k := range kinds {
		if matches(val, k) {
			return true
		}
	}
	return false
}

// matches reports whether val holds kind k. Envelopes decoded from the wire
// carry float64 for every number, so Integer is an integral-value check;
// int/int64 are also accepted for envelopes built in process.
func matches(val any, k Kind) bool {
	switch k {
	case Null:
		return val == nil
	case Boolean:
		_, ok := val.(bool)
		return ok
	case String:
		_, ok := val.(string)
		return ok
	case Array:
		_, ok := val.([]any)
		return ok
	case Object:
		_, ok := val.(map[string]any)
		return ok
	case Integer:
		switch n := val.(type) {
		case float64:
			return n == math.Trunc(n)
		case int, int64:
			return true
		}
		return false
	case Float:
		switch val.(type) {
		case float64, float32, int, int64:
			return true
		}
		return false
	default:
		return false
	}
}

func kindName(val any) string {
	switch n := val.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case float64:
		if n == math.Trunc(n) {
			return "integer"
		}
		return "float"
	case int, int64:
		return "integer"
	default:
		return fmt.Sprintf("%T", val)
	}
}

func expected(kinds []Kind) string {
	if len(kinds) == 1 {
		return kinds[0].String()
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return "one of [" + strings.Join(names, ", ") + "]"
}
