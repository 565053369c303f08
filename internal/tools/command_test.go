package tools

import (
	"encoding/json"
	"reflect"
	"testing"
)

func build(t *testing.T, r *Registry, tool, args string) Invocation {
	t.Helper()
	def, parsed, err := r.Validate(tool, json.RawMessage(args))
	if err != nil {
		t.Fatalf("validation failed: %v", err)
	}
	return r.Build(def, parsed)
}

func TestBuild(t *testing.T) {
	r := testRegistry(t)

	tests := []struct {
		name string
		tool string
		args string
		want []string
	}{
		{
			name: "geometric match with csv headers",
			tool: "pcli2_geometric_match",
			args: `{"path":"/Root/Folder/Part.stl","threshold":85,"format":"csv","headers":true}`,
			want: []string{"asset", "geometric-match", "--path", "/Root/Folder/Part.stl", "--threshold", "85.00", "--format", "csv", "--headers"},
		},
		{
			name: "defaults are emitted",
			tool: "pcli2_part_match",
			args: `{"uuid":"0b6c"}`,
			want: []string{"asset", "part-match", "--uuid", "0b6c", "--threshold", "80.00", "--format", "json"},
		},
		{
			name: "false booleans emit nothing",
			tool: "pcli2_asset_get",
			args: `{"uuid":"0b6c","headers":false,"pretty":true,"metadata":false}`,
			want: []string{"asset", "get", "--uuid", "0b6c", "--format", "json", "--pretty"},
		},
		{
			name: "both identifiers forwarded in declaration order",
			tool: "pcli2_asset_get",
			args: `{"path":"/Root/a.stl","uuid":"0b6c"}`,
			want: []string{"asset", "get", "--uuid", "0b6c", "--path", "/Root/a.stl", "--format", "json"},
		},
		{
			name: "threshold precision",
			tool: "pcli2_geometric_match",
			args: `{"uuid":"u","threshold":99.999}`,
			want: []string{"asset", "geometric-match", "--uuid", "u", "--threshold", "100.00", "--format", "json"},
		},
		{
			name: "list repeats flag",
			tool: "pcli2_folder_thumbnails",
			args: `{"folder_path":"/Root","tags":["bolt","m8"]}`,
			want: []string{"folder", "thumbnails", "--folder-path", "/Root", "--tag", "bolt", "--tag", "m8"},
		},
		{
			name: "trailing tokens",
			tool: "pcli2_asset_thumbnail",
			args: `{"uuid":"0b6c","tenant":"acme"}`,
			want: []string{"asset", "thumbnail", "--uuid", "0b6c", "--tenant", "acme", "--file", "-"},
		},
		{
			name: "metadata create",
			tool: "pcli2_asset_metadata_create",
			args: `{"path":"/Root/a.stl","name":"Material","value":"Steel 1.4301"}`,
			want: []string{"asset", "metadata", "create", "--path", "/Root/a.stl", "--name", "Material", "--value", "Steel 1.4301", "--type", "text"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := build(t, r, tt.tool, tt.args)
			if inv.Program != "pcli2" {
				t.Errorf("expected program pcli2, got %s", inv.Program)
			}
			if !reflect.DeepEqual(inv.Args, tt.want) {
				t.Errorf("expected %q, got %q", tt.want, inv.Args)
			}
		})
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	r := testRegistry(t)
	args := `{"metadata":true,"uuid":"u","pretty":true,"tenant":"t","headers":true,"format":"csv","threshold":12.5}`

	first := build(t, r, "pcli2_geometric_match", args)
	for i := 0; i < 20; i++ {
		if again := build(t, r, "pcli2_geometric_match", args); !reflect.DeepEqual(first, again) {
			t.Fatalf("build is not deterministic: %q vs %q", first.Args, again.Args)
		}
	}
}

func TestShellMetacharactersStayLiteral(t *testing.T) {
	r := testRegistry(t)

	path := "/Root/$(rm -rf x); echo `id` | tee 'q'"
	raw, _ := json.Marshal(map[string]string{"path": path})
	inv := build(t, r, "pcli2_asset_get", string(raw))

	found := false
	for _, arg := range inv.Args {
		if arg == path {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected path as a single token, got %q", inv.Args)
	}

	want := `pcli2 asset get --path '/Root/$(rm -rf x); echo ` + "`id`" + ` | tee '"'"'q'"'"'' --format json`
	if inv.String() != want {
		t.Errorf("expected quoted rendering %s, got %s", want, inv.String())
	}
}

func TestInvocationArgv(t *testing.T) {
	inv := Invocation{Program: "/usr/local/bin/pcli2", Args: []string{"tenant", "list"}}

	want := []string{"/usr/local/bin/pcli2", "tenant", "list"}
	if got := inv.Argv(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
	if inv.String() != "/usr/local/bin/pcli2 tenant list" {
		t.Errorf("unexpected rendering %s", inv.String())
	}
}
