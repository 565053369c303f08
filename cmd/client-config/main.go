package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/shirenchuang/pcli2-mcp/pkg/config"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// serverEntry one entry under mcpServers
type serverEntry struct {
	Type string `json:"type" yaml:"type"`
	URL  string `json:"url" yaml:"url"`
}

type clientConfig struct {
	MCPServers map[string]serverEntry `json:"mcpServers" yaml:"mcpServers"`
}

func main() {
	flags := pflag.NewFlagSet("pcli2-mcp-client-config", pflag.ExitOnError)
	configPath := flags.StringP("config", "c", "config.yaml", "server config file, used to derive the URL")
	format := flags.StringP("format", "f", "json", "output format (json, yaml)")
	name := flags.StringP("name", "n", "pcli2-mcp", "server name in the client config")
	url := flags.String("url", "", "server URL (default derived from the server config)")
	flags.Parse(os.Args[1:])

	if *url == "" {
		cfg, err := config.Load(config.FindFile(*configPath), nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		*url = fmt.Sprintf("http://%s/mcp", cfg.Addr())
	}

	if err := render(os.Stdout, *format, *name, *url); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// render writes the mcpServers snippet in the requested format
func render(w io.Writer, format, name, url string) error {
	if name == "" {
		return errors.New("server name must not be empty")
	}

	snippet := clientConfig{
		MCPServers: map[string]serverEntry{
			name: {Type: "http", URL: url},
		},
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(snippet), "failed to encode json")
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snippet); err != nil {
			return errors.Wrap(err, "failed to encode yaml")
		}
		return errors.Wrap(enc.Close(), "failed to encode yaml")
	default:
		return errors.Errorf("unknown format %q (want json or yaml)", format)
	}
}
