// Where: internal/loader/template.go
// What: Template file loading and skeleton validation.
// Why: Catch structurally broken templates with a schema error before
// the renderer produces a confusing downstream failure.
package loader

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/template.schema.json
var templateSchema string

var (
	schemaOnce     sync.Once
	schemaErr      error
	compiledSchema *jsonschema.Schema
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("template.schema.json", strings.NewReader(templateSchema)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("template.schema.json")
	})
	return compiledSchema, schemaErr
}

// Template reads, validates and decodes a template file. JSON templates
// are a YAML subset so both formats take the same path.
func Template(path string) (map[string]any, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	doc, err := TemplateBytes(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// TemplateBytes validates and decodes raw template content. Short-form
// intrinsic tags are normalized before validation so the schema only
// ever sees long-form keys.
func TemplateBytes(content []byte) (map[string]any, error) {
	doc, err := decodeYAML(content)
	if err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}

	sch, err := loadSchema()
	if err != nil {
		return nil, err
	}

	// Round-trip through JSON so the validator sees uniform number and
	// map types regardless of the source format.
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("normalize template: %w", err)
	}
	var document any
	if err := json.Unmarshal(jsonData, &document); err != nil {
		return nil, fmt.Errorf("normalize template: %w", err)
	}

	if err := sch.Validate(document); err != nil {
		return nil, fmt.Errorf("template failed validation: %w", err)
	}
	return doc, nil
}
