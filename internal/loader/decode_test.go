package loader

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeShortForms(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want map[string]any
	}{
		{
			name: "ref",
			yaml: "Value: !Ref Env",
			want: map[string]any{"Value": map[string]any{"Ref": "Env"}},
		},
		{
			name: "sub scalar",
			yaml: "Value: !Sub bucket-${Env}",
			want: map[string]any{"Value": map[string]any{"Fn::Sub": "bucket-${Env}"}},
		},
		{
			name: "sub sequence",
			yaml: "Value: !Sub [\"${A}\", {A: one}]",
			want: map[string]any{"Value": map[string]any{"Fn::Sub": []any{
				"${A}", map[string]any{"A": "one"},
			}}},
		},
		{
			name: "getatt scalar splits on the first dot",
			yaml: "Value: !GetAtt Bucket.Outpost.Arn",
			want: map[string]any{"Value": map[string]any{
				"Fn::GetAtt": []any{"Bucket", "Outpost.Arn"},
			}},
		},
		{
			name: "getatt sequence",
			yaml: "Value: !GetAtt [Bucket, Arn]",
			want: map[string]any{"Value": map[string]any{
				"Fn::GetAtt": []any{"Bucket", "Arn"},
			}},
		},
		{
			name: "join",
			yaml: "Value: !Join [\"-\", [a, b]]",
			want: map[string]any{"Value": map[string]any{
				"Fn::Join": []any{"-", []any{"a", "b"}},
			}},
		},
		{
			name: "nested short forms",
			yaml: "Value: !Join [\"-\", [!Ref Env, !GetAZs \"\"]]",
			want: map[string]any{"Value": map[string]any{
				"Fn::Join": []any{"-", []any{
					map[string]any{"Ref": "Env"},
					map[string]any{"Fn::GetAZs": ""},
				}},
			}},
		},
		{
			name: "condition tag",
			yaml: "Value: !Condition IsProd",
			want: map[string]any{"Value": map[string]any{"Condition": "IsProd"}},
		},
		{
			name: "boolean combinators",
			yaml: "Value: !Not [!Equals [!Ref Env, prod]]",
			want: map[string]any{"Value": map[string]any{
				"Fn::Not": []any{map[string]any{
					"Fn::Equals": []any{map[string]any{"Ref": "Env"}, "prod"},
				}},
			}},
		},
		{
			name: "cidr and findinmap",
			yaml: "A: !Cidr [10.0.0.0/24, 2, 5]\nB: !FindInMap [RegionMap, us-east-1, ami]",
			want: map[string]any{
				"A": map[string]any{"Fn::Cidr": []any{"10.0.0.0/24", 2, 5}},
				"B": map[string]any{"Fn::FindInMap": []any{"RegionMap", "us-east-1", "ami"}},
			},
		},
		{
			name: "importvalue and base64",
			yaml: "A: !ImportValue shared-vpc\nB: !Base64 hello",
			want: map[string]any{
				"A": map[string]any{"Fn::ImportValue": "shared-vpc"},
				"B": map[string]any{"Fn::Base64": "hello"},
			},
		},
		{
			// Keys keep their written spelling even when the YAML
			// resolver would type them (Null, true, 404).
			name: "non-string keys keep their written text",
			yaml: "Null: 1\ntrue: 2\n404: 3",
			want: map[string]any{"Null": 1, "true": 2, "404": 3},
		},
		{
			name: "plain scalars keep their types",
			yaml: "Int: 5\nFloat: 1.5\nBool: true\nNull: null\nStr: hello",
			want: map[string]any{
				"Int":   5,
				"Float": 1.5,
				"Bool":  true,
				"Null":  nil,
				"Str":   "hello",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeYAML([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("decoded tree mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeRejectsNonMappingRoot(t *testing.T) {
	if _, err := decodeYAML([]byte("- a\n- b")); err == nil {
		t.Fatalf("sequence root decoded without error")
	}
	if _, err := decodeYAML([]byte("")); err == nil {
		t.Fatalf("empty document decoded without error")
	}
}
