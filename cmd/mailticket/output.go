package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by -o/--output
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// writeOutput encodes v as JSON or YAML. For text output it calls text instead.
func writeOutput(w io.Writer, format string, v interface{}, text func(io.Writer) error) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	case outputText, "":
		return text(w)
	default:
		return fmt.Errorf("unknown output format %q (use text, json or yaml)", format)
	}
}
