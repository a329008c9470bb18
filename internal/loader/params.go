// Where: internal/loader/params.go
// What: Parameter file loading.
// Why: Accept the shapes teams already have lying around: plain maps,
// the aws-cli {"Parameters": {...}} wrapper and CodePipeline's
// ParameterKey/ParameterValue arrays.
package loader

import (
	"encoding/json"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Parameters reads a parameter file in YAML or JSON form.
func Parameters(path string) (map[string]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read parameters: %w", err)
	}
	params, err := ParametersBytes(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return params, nil
}

// ParametersBytes decodes raw parameter content. Values of any scalar
// type are carried as strings, matching how CloudFormation receives
// them.
func ParametersBytes(content []byte) (map[string]string, error) {
	jsonData, err := yaml.YAMLToJSON(content)
	if err != nil {
		return nil, fmt.Errorf("decode parameters: %w", err)
	}

	var document any
	if err := json.Unmarshal(jsonData, &document); err != nil {
		return nil, fmt.Errorf("decode parameters: %w", err)
	}

	switch typed := document.(type) {
	case map[string]any:
		// The aws-cli wrapper nests the real map one level down.
		if inner, ok := typed["Parameters"].(map[string]any); ok && len(typed) == 1 {
			return flatParameters(inner)
		}
		return flatParameters(typed)
	case []any:
		return pipelineParameters(typed)
	}
	return nil, fmt.Errorf("parameters must be a map or a ParameterKey list")
}

func flatParameters(values map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for key, value := range values {
		switch value.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("parameter %s must be a scalar", key)
		}
		out[key] = scalarString(value)
	}
	return out, nil
}

func pipelineParameters(entries []any) (map[string]string, error) {
	out := make(map[string]string, len(entries))
	for i, entry := range entries {
		pair, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("parameter entry %d must be a map", i)
		}
		key, ok := pair["ParameterKey"].(string)
		if !ok || key == "" {
			return nil, fmt.Errorf("parameter entry %d has no ParameterKey", i)
		}
		value, ok := pair["ParameterValue"]
		if !ok {
			return nil, fmt.Errorf("parameter %s has no ParameterValue", key)
		}
		out[key] = scalarString(value)
	}
	return out, nil
}
