// Package tools holds the pcli2 tool catalog and everything that works on
// it before a process exists: argument validation and command-line
// construction.
//
// A Registry is built once at startup and never mutated afterwards, so it
// is shared by all requests without locking.
package tools

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the value type of a tool parameter.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBoolean
	KindEnum
	KindStringList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindEnum:
		return "enum"
	case KindStringList:
		return "list of strings"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// jsonType is the JSON Schema type advertised for the kind
func (k Kind) jsonType() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindStringList:
		return "array"
	default:
		return "string"
	}
}

// OutputKind tells the response shaper how to treat stdout.
type OutputKind int

const (
	OutputText OutputKind = iota
	OutputBinary
)

// Param declares one tool argument and how it maps onto the command line.
type Param struct {
	Name        string
	Description string
	Kind        Kind
	Required    bool
	Default     any
	Min         *float64
	Max         *float64
	Enum        []string
	// Flag is the token emitted before the value (or alone, for booleans).
	Flag string
	// Precision is the number of decimals used when formatting numbers.
	Precision int
}

// Tool is an immutable tool definition.
type Tool struct {
	Name        string
	Title       string
	Description string
	// Command holds the subcommand tokens that follow the program name.
	Command []string
	Params  []Param
	// AtLeastOneOf lists parameter groups of which at least one member
	// must be present in a call.
	AtLeastOneOf [][]string
	// TrailingArgs are fixed tokens appended after all parameters.
	TrailingArgs []string
	Output       OutputKind
	// MIMEType is the declared type of binary output, if known.
	MIMEType string
	ReadOnly bool
}

// Param returns the named parameter declaration
func (t *Tool) Param(name string) (*Param, bool) {
	for i := range t.Params {
		if t.Params[i].Name == name {
			return &t.Params[i], true
		}
	}
	return nil, false
}

// Registry is the read-only tool catalog.
type Registry struct {
	program string
	tools   []*Tool
	byName  map[string]*Tool
}

// NewRegistry builds a registry for the given program from definitions.
// The definitions are copied; later changes to defs are not observed.
func NewRegistry(program string, defs []Tool) (*Registry, error) {
	if program == "" {
		return nil, errors.New("program must not be empty")
	}

	r := &Registry{
		program: program,
		tools:   make([]*Tool, 0, len(defs)),
		byName:  make(map[string]*Tool, len(defs)),
	}

	for i := range defs {
		t := cloneTool(defs[i])
		if err := checkTool(t); err != nil {
			return nil, errors.Wrapf(err, "invalid tool definition %q", t.Name)
		}
		if _, exists := r.byName[t.Name]; exists {
			return nil, errors.Errorf("duplicate tool name %q", t.Name)
		}
		r.tools = append(r.tools, t)
		r.byName[t.Name] = t
	}

	return r, nil
}

// Program returns the external program every invocation runs
func (r *Registry) Program() string {
	return r.program
}

// Lookup finds a tool by name
func (r *Registry) Lookup(name string) (*Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// List returns tools in declaration order
func (r *Registry) List() []*Tool {
	out := make([]*Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Len returns the number of tools
func (r *Registry) Len() int {
	return len(r.tools)
}

func cloneTool(src Tool) *Tool {
	t := src
	t.Command = append([]string(nil), src.Command...)
	t.TrailingArgs = append([]string(nil), src.TrailingArgs...)
	t.Params = make([]Param, len(src.Params))
	for i, p := range src.Params {
		p.Enum = append([]string(nil), p.Enum...)
		if p.Default != nil {
			if list, ok := p.Default.([]string); ok {
				p.Default = append([]string(nil), list...)
			}
		}
		t.Params[i] = p
	}
	t.AtLeastOneOf = make([][]string, len(src.AtLeastOneOf))
	for i, group := range src.AtLeastOneOf {
		t.AtLeastOneOf[i] = append([]string(nil), group...)
	}
	return &t
}

func checkTool(t *Tool) error {
	if t.Name == "" {
		return errors.New("name must not be empty")
	}
	if len(t.Command) == 0 {
		return errors.New("command must not be empty")
	}

	seen := make(map[string]bool, len(t.Params))
	for i := range t.Params {
		p := &t.Params[i]
		if p.Name == "" || p.Flag == "" {
			return errors.Errorf("parameter %d needs a name and a flag", i)
		}
		if seen[p.Name] {
			return errors.Errorf("duplicate parameter %q", p.Name)
		}
		seen[p.Name] = true

		if p.Kind == KindEnum && len(p.Enum) == 0 {
			return errors.Errorf("enum parameter %q declares no values", p.Name)
		}
		if p.Required && p.Default != nil {
			return errors.Errorf("required parameter %q cannot have a default", p.Name)
		}
		if p.Default != nil {
			if _, err := checkValue(t, p, p.Default); err != nil {
				return errors.Wrapf(err, "default of %q", p.Name)
			}
		}
	}

	for _, group := range t.AtLeastOneOf {
		if len(group) < 2 {
			return errors.Errorf("at-least-one-of group %v needs two or more members", group)
		}
		for _, name := range group {
			p, ok := t.Param(name)
			if !ok {
				return errors.Errorf("at-least-one-of member %q is not a parameter", name)
			}
			if p.Required || p.Default != nil {
				return errors.Errorf("at-least-one-of member %q must be optional without default", name)
			}
		}
	}

	return nil
}
