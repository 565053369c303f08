package tools

import (
	"testing"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry("pcli2", Catalog())
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	return r
}

func TestCatalogIsValid(t *testing.T) {
	r := testRegistry(t)

	if r.Len() != len(Catalog()) {
		t.Fatalf("expected %d tools, got %d", len(Catalog()), r.Len())
	}
	if r.Program() != "pcli2" {
		t.Errorf("expected program pcli2, got %s", r.Program())
	}
}

func TestListKeepsDeclarationOrder(t *testing.T) {
	r := testRegistry(t)
	catalog := Catalog()

	list := r.List()
	for i, tool := range list {
		if tool.Name != catalog[i].Name {
			t.Errorf("position %d: expected %s, got %s", i, catalog[i].Name, tool.Name)
		}
	}

	// the returned slice is a copy
	list[0] = nil
	if r.List()[0] == nil {
		t.Error("List must not expose the internal slice")
	}
}

func TestLookup(t *testing.T) {
	r := testRegistry(t)

	tool, ok := r.Lookup("pcli2_geometric_match")
	if !ok {
		t.Fatal("expected pcli2_geometric_match to exist")
	}
	if len(tool.AtLeastOneOf) != 1 {
		t.Errorf("expected one at-least-one-of group, got %v", tool.AtLeastOneOf)
	}

	if _, ok := r.Lookup("pcli2_nope"); ok {
		t.Error("expected unknown tool lookup to fail")
	}
}

func TestRegistryIsolatedFromDefinitions(t *testing.T) {
	defs := Catalog()
	r, err := NewRegistry("pcli2", defs)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	defs[0].Name = "mutated"
	defs[0].Command[0] = "mutated"

	tool, ok := r.Lookup("pcli2_tenant_list")
	if !ok {
		t.Fatal("registry lost a tool after the source slice changed")
	}
	if tool.Command[0] != "tenant" {
		t.Errorf("registry shares command slice with caller: %v", tool.Command)
	}
}

func TestResourceToolsDeclareAtLeastOneOf(t *testing.T) {
	r := testRegistry(t)

	for _, tool := range r.List() {
		_, hasUUID := tool.Param("uuid")
		_, hasPath := tool.Param("path")
		if hasUUID && hasPath && len(tool.AtLeastOneOf) == 0 {
			t.Errorf("%s identifies a resource but declares no at-least-one-of constraint", tool.Name)
		}
	}
}

func TestNewRegistryRejectsBadDefinitions(t *testing.T) {
	base := func() Tool {
		return Tool{
			Name:    "pcli2_test",
			Command: []string{"asset", "get"},
			Params: []Param{
				{Name: "uuid", Kind: KindString, Flag: "--uuid"},
				{Name: "path", Kind: KindString, Flag: "--path"},
			},
			AtLeastOneOf: [][]string{{"uuid", "path"}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Tool)
	}{
		{"empty name", func(tool *Tool) { tool.Name = "" }},
		{"empty command", func(tool *Tool) { tool.Command = nil }},
		{"missing flag", func(tool *Tool) { tool.Params[0].Flag = "" }},
		{"duplicate param", func(tool *Tool) { tool.Params[1].Name = "uuid" }},
		{"enum without values", func(tool *Tool) {
			tool.Params = append(tool.Params, Param{Name: "format", Kind: KindEnum, Flag: "--format"})
		}},
		{"default outside enum", func(tool *Tool) {
			tool.Params = append(tool.Params, Param{Name: "format", Kind: KindEnum, Flag: "--format", Enum: []string{"json"}, Default: "xml"})
		}},
		{"default outside range", func(tool *Tool) {
			tool.Params = append(tool.Params, Param{Name: "threshold", Kind: KindNumber, Flag: "--threshold", Max: float(100), Default: 101.0})
		}},
		{"required with default", func(tool *Tool) {
			tool.Params = append(tool.Params, Param{Name: "name", Kind: KindString, Flag: "--name", Required: true, Default: "x"})
		}},
		{"group member undeclared", func(tool *Tool) { tool.AtLeastOneOf = [][]string{{"uuid", "folder_path"}} }},
		{"group of one", func(tool *Tool) { tool.AtLeastOneOf = [][]string{{"uuid"}} }},
		{"required group member", func(tool *Tool) { tool.Params[0].Required = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := base()
			tt.mutate(&tool)
			if _, err := NewRegistry("pcli2", []Tool{tool}); err == nil {
				t.Error("expected NewRegistry to fail")
			}
		})
	}

	if _, err := NewRegistry("pcli2", []Tool{base(), base()}); err == nil {
		t.Error("expected duplicate tool names to fail")
	}
	if _, err := NewRegistry("", []Tool{base()}); err == nil {
		t.Error("expected empty program to fail")
	}
}
