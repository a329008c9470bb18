package template

import "testing"

func init() {
	// Renders must never leave the process during tests.
	fetchRegionData = func() ([]regionEntry, error) {
		return []regionEntry{
			{Code: "us-east-1", Zones: []string{"us-east-1a", "us-east-1b", "us-east-1c"}},
			{Code: "eu-west-1", Zones: []string{"eu-west-1a", "eu-west-1b"}},
		}, nil
	}
}

func mustTemplate(t *testing.T, doc map[string]any, opts ...Option) *Template {
	t.Helper()
	tpl, err := New(doc, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tpl
}

// outputDoc builds a template whose single output carries the value
// under test, alongside enough surrounding sections for references to
// resolve against.
func outputDoc(value any) map[string]any {
	return map[string]any{
		"Parameters": map[string]any{
			"Env":   map[string]any{"Type": "String", "Default": "prod"},
			"Ports": map[string]any{"Type": "CommaDelimitedList", "Default": "80,443"},
		},
		"Mappings": map[string]any{
			"RegionMap": map[string]any{
				"us-east-1": map[string]any{"ami": "ami-0ff8a91507f77f867"},
			},
		},
		"Conditions": map[string]any{
			"IsProd": map[string]any{
				"Fn::Equals": []any{map[string]any{"Ref": "Env"}, "prod"},
			},
		},
		"Resources": map[string]any{
			"Bucket": map[string]any{
				"Type":       "AWS::S3::Bucket",
				"Properties": map[string]any{},
			},
		},
		"Outputs": map[string]any{
			"Result": map[string]any{"Value": value},
		},
	}
}

func renderOutput(t *testing.T, doc map[string]any, opts ...Option) (any, error) {
	t.Helper()
	tpl := mustTemplate(t, doc, opts...)
	rendered, err := tpl.Render(nil, "")
	if err != nil {
		return nil, err
	}
	outputs, ok := rendered["Outputs"].(map[string]any)
	if !ok {
		t.Fatalf("rendered template has no Outputs section")
	}
	result, ok := outputs["Result"].(map[string]any)
	if !ok {
		t.Fatalf("rendered template has no Result output")
	}
	return result["Value"], nil
}
