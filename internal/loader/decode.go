// Where: internal/loader/decode.go
// What: YAML decoding with short-form intrinsic normalization.
// Why: The renderer only recognizes long-form function keys; every
// !Ref style tag is rewritten into its Fn:: equivalent while decoding.
package loader

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

func decodeYAML(content []byte) (map[string]any, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(content, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, fmt.Errorf("empty template document")
	}
	decoded := decodeNode(node.Content[0])
	data, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("template root must be a mapping")
	}
	return data, nil
}

func decodeNode(node *yaml.Node) any {
	if node == nil {
		return nil
	}
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil
		}
		return decodeNode(node.Content[0])
	case yaml.MappingNode:
		m := map[string]any{}
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := mappingKey(node.Content[i])
			if key == "" {
				continue
			}
			m[key] = decodeNode(node.Content[i+1])
		}
		// Tags on mappings (e.g. !Sub { Key: Val }, !Transform {...})
		switch node.Tag {
		case "!Sub":
			return map[string]any{"Fn::Sub": m}
		case "!Transform":
			return map[string]any{"Fn::Transform": m}
		}
		return m
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			out = append(out, decodeNode(item))
		}
		// Tags on sequences (e.g. !Join [ "", [] ])
		switch node.Tag {
		case "!Join":
			return map[string]any{"Fn::Join": out}
		case "!Sub":
			return map[string]any{"Fn::Sub": out}
		case "!GetAtt":
			return map[string]any{"Fn::GetAtt": out}
		case "!If":
			return map[string]any{"Fn::If": out}
		case "!Equals":
			return map[string]any{"Fn::Equals": out}
		case "!And":
			return map[string]any{"Fn::And": out}
		case "!Or":
			return map[string]any{"Fn::Or": out}
		case "!Not":
			return map[string]any{"Fn::Not": out}
		case "!Select":
			return map[string]any{"Fn::Select": out}
		case "!Split":
			return map[string]any{"Fn::Split": out}
		case "!Cidr":
			return map[string]any{"Fn::Cidr": out}
		case "!FindInMap":
			return map[string]any{"Fn::FindInMap": out}
		}
		return out
	case yaml.ScalarNode:
		return decodeScalar(node)
	default:
		return nil
	}
}

func decodeScalar(node *yaml.Node) any {
	if node == nil {
		return nil
	}
	switch node.Tag {
	case "!!int":
		if value, err := strconv.Atoi(node.Value); err == nil {
			return value
		}
	case "!!float":
		if value, err := strconv.ParseFloat(node.Value, 64); err == nil {
			return value
		}
	case "!!bool":
		if value, err := strconv.ParseBool(node.Value); err == nil {
			return value
		}
	case "!!null":
		return nil
	case "!Ref":
		return map[string]any{"Ref": node.Value}
	case "!Sub":
		return map[string]any{"Fn::Sub": node.Value}
	case "!GetAtt":
		// !GetAtt A.B.C means resource A, attribute B.C.
		logical, attribute, _ := strings.Cut(node.Value, ".")
		return map[string]any{"Fn::GetAtt": []any{logical, attribute}}
	case "!GetAZs":
		return map[string]any{"Fn::GetAZs": node.Value}
	case "!Base64":
		return map[string]any{"Fn::Base64": node.Value}
	case "!ImportValue":
		return map[string]any{"Fn::ImportValue": node.Value}
	case "!Condition":
		return map[string]any{"Condition": node.Value}
	}
	return node.Value
}

// mappingKey preserves the written text of a key. Decoding the node
// first would type-resolve keys like Null: or true: and lose the
// spelling the template author used.
func mappingKey(node *yaml.Node) string {
	if node == nil {
		return ""
	}
	if node.Kind == yaml.ScalarNode {
		return node.Value
	}
	return scalarString(decodeNode(node))
}

func scalarString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}
