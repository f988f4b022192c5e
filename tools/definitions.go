package tools

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/telistry/switchboard/core/protocol"
)

// LoadDefinitions reads tool definitions from a JSON file of the form
// {"tools": [...]}. The file redefines the schema and description of tools
// that already have handlers; it cannot add new capabilities.
func LoadDefinitions(path string) ([]protocol.Tool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tools file: %w", err)
	}

	var file struct {
		Tools []protocol.Tool `json:"tools"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tools file: %w", err)
	}
	return file.Tools, nil
}

// ApplyDefinitions redefines registered tools from loaded definitions.
// A definition naming an unregistered tool is an error: there is no handler
// behind it.
func ApplyDefinitions(r *Registry, defs []protocol.Tool) error {
	for _, def := range defs {
		if err := r.Redefine(def); err != nil {
			return err
		}
	}
	return nil
}
