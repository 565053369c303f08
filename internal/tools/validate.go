package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrorKind classifies a ValidationError.
type ErrorKind string

const (
	ErrUnknownTool  ErrorKind = "unknown_tool"
	ErrNotObject    ErrorKind = "not_object"
	ErrUnknownField ErrorKind = "unknown_field"
	ErrMissing      ErrorKind = "missing"
	ErrWrongType    ErrorKind = "wrong_type"
	ErrOutOfRange   ErrorKind = "out_of_range"
	ErrNotInEnum    ErrorKind = "not_in_enum"
	ErrAtLeastOneOf ErrorKind = "at_least_one_of"
)

// ValidationError reports the first violated constraint of a tool call.
type ValidationError struct {
	Kind    ErrorKind
	Tool    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("tool %s: argument %q %s", e.Tool, e.Field, e.Message)
	case e.Tool != "":
		return fmt.Sprintf("tool %s: %s", e.Tool, e.Message)
	default:
		return e.Message
	}
}

// Arguments is a validated argument set. Values are string, float64, bool
// or []string; defaults have been applied.
type Arguments map[string]any

// String returns a string argument, or "" when absent
func (a Arguments) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Validate checks raw call arguments against the named tool and returns
// the tool with the normalized arguments. It stops at the first violation;
// the check order is fixed so the same input always reports the same field.
func (r *Registry) Validate(name string, raw json.RawMessage) (*Tool, Arguments, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, nil, &ValidationError{
			Kind:    ErrUnknownTool,
			Field:   "name",
			Message: fmt.Sprintf("unknown tool %q", name),
		}
	}

	fields, err := decodeObject(raw)
	if err != nil {
		return t, nil, &ValidationError{Kind: ErrNotObject, Tool: t.Name, Field: "arguments", Message: err.Error()}
	}

	unknown := make([]string, 0)
	for key := range fields {
		if _, declared := t.Param(key); !declared {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return t, nil, &ValidationError{
			Kind:    ErrUnknownField,
			Tool:    t.Name,
			Field:   unknown[0],
			Message: "is not a parameter of this tool",
		}
	}

	args := make(Arguments, len(t.Params))
	for i := range t.Params {
		p := &t.Params[i]

		value, present, err := decodeValue(p, fields[p.Name])
		if err != nil {
			return t, nil, &ValidationError{Kind: ErrWrongType, Tool: t.Name, Field: p.Name, Message: err.Error()}
		}

		if !present {
			if p.Required {
				return t, nil, &ValidationError{Kind: ErrMissing, Tool: t.Name, Field: p.Name, Message: "is required"}
			}
			continue
		}

		value, verr := checkValue(t, p, value)
		if verr != nil {
			return t, nil, verr
		}
		args[p.Name] = value
	}

	for _, group := range t.AtLeastOneOf {
		found := false
		for _, member := range group {
			if _, ok := args[member]; ok {
				found = true
				break
			}
		}
		if !found {
			return t, nil, &ValidationError{
				Kind:    ErrAtLeastOneOf,
				Tool:    t.Name,
				Field:   strings.Join(group, "|"),
				Message: fmt.Sprintf("requires at least one of %s", strings.Join(group, ", ")),
			}
		}
	}

	for i := range t.Params {
		p := &t.Params[i]
		if _, ok := args[p.Name]; !ok && p.Default != nil {
			args[p.Name] = p.Default
		}
	}

	return t, args, nil
}

// decodeObject splits the arguments object into raw members.
// Absent or null arguments mean an empty object.
func decodeObject(raw json.RawMessage) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]json.RawMessage{}, nil
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("must be a JSON object, got %s", jsonKind(trimmed))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("is not a valid JSON object: %v", err)
	}
	return fields, nil
}

// decodeValue converts a raw JSON member to the Go type of the parameter.
// present is false for absent members, nulls and empty optional strings.
func decodeValue(p *Param, raw json.RawMessage) (value any, present bool, err error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false, nil
	}

	want := p.Kind.jsonType()
	got := jsonKind(trimmed)
	if got != want {
		return nil, false, fmt.Errorf("must be a %s, got %s", p.Kind, got)
	}

	switch p.Kind {
	case KindString, KindEnum:
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, false, fmt.Errorf("must be a %s: %v", p.Kind, err)
		}
		if s == "" && p.Kind == KindString {
			// treated as absent, so a required one is reported missing
			return nil, false, nil
		}
		return s, true, nil

	case KindNumber:
		f, err := strconv.ParseFloat(string(trimmed), 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, false, fmt.Errorf("must be a finite number, got %s", trimmed)
		}
		return f, true, nil

	case KindBoolean:
		return bytes.Equal(trimmed, []byte("true")), true, nil

	case KindStringList:
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, false, fmt.Errorf("must be a list of strings: %v", err)
		}
		list := make([]string, 0, len(items))
		for i, item := range items {
			var s string
			if jsonKind(item) != "string" || json.Unmarshal(item, &s) != nil {
				return nil, false, fmt.Errorf("element %d must be a string, got %s", i, jsonKind(item))
			}
			list = append(list, s)
		}
		return list, true, nil
	}

	return nil, false, fmt.Errorf("has unsupported kind %s", p.Kind)
}

// checkValue applies range and enum constraints to a decoded value.
func checkValue(t *Tool, p *Param, value any) (any, *ValidationError) {
	fail := func(kind ErrorKind, format string, args ...any) *ValidationError {
		return &ValidationError{Kind: kind, Tool: t.Name, Field: p.Name, Message: fmt.Sprintf(format, args...)}
	}

	switch p.Kind {
	case KindString:
		if _, ok := value.(string); !ok {
			return nil, fail(ErrWrongType, "must be a string")
		}

	case KindEnum:
		s, ok := value.(string)
		if !ok {
			return nil, fail(ErrWrongType, "must be one of %s", strings.Join(p.Enum, ", "))
		}
		for _, allowed := range p.Enum {
			if s == allowed {
				return s, nil
			}
		}
		return nil, fail(ErrNotInEnum, "must be one of %s, got %q", strings.Join(p.Enum, ", "), s)

	case KindNumber:
		var f float64
		switch n := value.(type) {
		case float64:
			f = n
		case int:
			f = float64(n)
		default:
			return nil, fail(ErrWrongType, "must be a number")
		}
		if p.Min != nil && f < *p.Min {
			return nil, fail(ErrOutOfRange, "must be between %s and %s, got %s", bound(p.Min), bound(p.Max), formatNumber(f, -1))
		}
		if p.Max != nil && f > *p.Max {
			return nil, fail(ErrOutOfRange, "must be between %s and %s, got %s", bound(p.Min), bound(p.Max), formatNumber(f, -1))
		}
		return f, nil

	case KindBoolean:
		if _, ok := value.(bool); !ok {
			return nil, fail(ErrWrongType, "must be a boolean")
		}

	case KindStringList:
		if _, ok := value.([]string); !ok {
			return nil, fail(ErrWrongType, "must be a list of strings")
		}
	}

	return value, nil
}

func bound(v *float64) string {
	if v == nil {
		return "unbounded"
	}
	return formatNumber(*v, -1)
}

// jsonKind names the JSON type of a raw value by its first byte.
func jsonKind(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "nothing"
	}
	switch trimmed[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
