package config

import _ "embed"

//go:embed config.example.yaml
var example []byte

// Example returns the annotated example config shipped with the binary
func Example() []byte {
	return append([]byte(nil), example...)
}
