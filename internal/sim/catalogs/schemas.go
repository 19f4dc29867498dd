package catalogs

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// Compiled once at package init. A bad embedded schema is a build
// defect, so panicking here is fine.
var catalogSchemas = map[string]*jsonschema.Schema{
	"missions":       mustCompileSchema("missions"),
	"factions":       mustCompileSchema("factions"),
	"location_types": mustCompileSchema("location_types"),
	"items":          mustCompileSchema("items"),
}

func mustCompileSchema(name string) *jsonschema.Schema {
	path := "schemas/" + name + ".schema.json"
	raw, err := schemaFS.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("catalogs: missing embedded schema %s: %v", path, err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(path, bytes.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("catalogs: add schema %s: %v", path, err))
	}
	s, err := c.Compile(path)
	if err != nil {
		panic(fmt.Sprintf("catalogs: compile schema %s: %v", path, err))
	}
	return s
}

// validateCatalog checks raw catalog bytes against the embedded schema
// before they are decoded into defs. Catching shape errors here keeps
// the per-def checks in the loaders about semantics only.
func validateCatalog(raw []byte, name string) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%s.json: %w", name, err)
	}
	if err := catalogSchemas[name].Validate(doc); err != nil {
		return fmt.Errorf("%s.json: %w", name, err)
	}
	return nil
}
