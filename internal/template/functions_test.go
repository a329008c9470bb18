package template

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRenderIntrinsics(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  any
	}{
		{
			name:  "ref parameter",
			value: map[string]any{"Ref": "Env"},
			want:  "prod",
		},
		{
			name:  "ref list parameter splits",
			value: map[string]any{"Ref": "Ports"},
			want:  []any{"80", "443"},
		},
		{
			name:  "ref resource returns logical id",
			value: map[string]any{"Ref": "Bucket"},
			want:  "Bucket",
		},
		{
			name:  "ref pseudo region",
			value: map[string]any{"Ref": "AWS::Region"},
			want:  "us-east-1",
		},
		{
			name:  "ref pseudo account id",
			value: map[string]any{"Ref": "AWS::AccountId"},
			want:  "555555555555",
		},
		{
			name:  "join",
			value: map[string]any{"Fn::Join": []any{"-", []any{"a", "b", "c"}}},
			want:  "a-b-c",
		},
		{
			name: "join with nested ref",
			value: map[string]any{"Fn::Join": []any{
				":", []any{"env", map[string]any{"Ref": "Env"}},
			}},
			want: "env:prod",
		},
		{
			name:  "select",
			value: map[string]any{"Fn::Select": []any{1, []any{"a", "b", "c"}}},
			want:  "b",
		},
		{
			name: "select over split",
			value: map[string]any{"Fn::Select": []any{
				0, map[string]any{"Fn::Split": []any{",", "x,y"}},
			}},
			want: "x",
		},
		{
			name:  "split",
			value: map[string]any{"Fn::Split": []any{"|", "a|b|"}},
			want:  []any{"a", "b", ""},
		},
		{
			name:  "sub plain string",
			value: map[string]any{"Fn::Sub": "bucket-${Env}-${AWS::Region}"},
			want:  "bucket-prod-us-east-1",
		},
		{
			name: "sub with locals",
			value: map[string]any{"Fn::Sub": []any{
				"${Greeting}-${Env}",
				map[string]any{"Greeting": "hello"},
			}},
			want: "hello-prod",
		},
		{
			name:  "sub escape is literal",
			value: map[string]any{"Fn::Sub": "keep ${!Env} raw, expand ${Env}"},
			want:  "keep ${Env} raw, expand prod",
		},
		{
			name:  "sub dotted name is an attribute",
			value: map[string]any{"Fn::Sub": "${Bucket.Arn}"},
			want:  "Bucket.Arn",
		},
		{
			name:  "getatt placeholder",
			value: map[string]any{"Fn::GetAtt": []any{"Bucket", "DomainName"}},
			want:  "Bucket.DomainName",
		},
		{
			name:  "base64",
			value: map[string]any{"Fn::Base64": "AWS CloudFormation"},
			want:  "QVdTIENsb3VkRm9ybWF0aW9u",
		},
		{
			name: "findinmap",
			value: map[string]any{"Fn::FindInMap": []any{
				"RegionMap", "us-east-1", "ami",
			}},
			want: "ami-0ff8a91507f77f867",
		},
		{
			name: "findinmap with ref keys",
			value: map[string]any{"Fn::FindInMap": []any{
				"RegionMap", map[string]any{"Ref": "AWS::Region"}, "ami",
			}},
			want: "ami-0ff8a91507f77f867",
		},
		{
			name:  "getazs for render region",
			value: map[string]any{"Fn::GetAZs": ""},
			want:  []any{"us-east-1a", "us-east-1b", "us-east-1c"},
		},
		{
			name:  "getazs for named region",
			value: map[string]any{"Fn::GetAZs": "eu-west-1"},
			want:  []any{"eu-west-1a", "eu-west-1b"},
		},
		{
			name: "if picks true branch",
			value: map[string]any{"Fn::If": []any{
				"IsProd", "retained", "deleted",
			}},
			want: "retained",
		},
		{
			name: "transform returns macro name",
			value: map[string]any{"Fn::Transform": map[string]any{
				"Name":       "AWS::Include",
				"Parameters": map[string]any{"Location": "s3://bucket/key"},
			}},
			want: "AWS::Include",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := renderOutput(t, outputDoc(tt.value))
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("rendered value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderIntrinsicErrors(t *testing.T) {
	tests := []struct {
		name  string
		value any
		kind  error
	}{
		{
			name:  "ref unknown name",
			value: map[string]any{"Ref": "Nope"},
			kind:  ErrReference,
		},
		{
			name:  "ref non-string",
			value: map[string]any{"Ref": 7},
			kind:  ErrShape,
		},
		{
			name:  "ref unknown pseudo",
			value: map[string]any{"Ref": "AWS::Nonsense"},
			kind:  ErrReference,
		},
		{
			name:  "select index out of range",
			value: map[string]any{"Fn::Select": []any{9, []any{"a"}}},
			kind:  ErrShape,
		},
		{
			name: "join rejects non-string item",
			value: map[string]any{"Fn::Join": []any{
				"-", []any{"a", 1},
			}},
			kind: ErrShape,
		},
		{
			name:  "sub unknown variable",
			value: map[string]any{"Fn::Sub": "${Nope}"},
			kind:  ErrReference,
		},
		{
			name: "findinmap unknown map",
			value: map[string]any{"Fn::FindInMap": []any{
				"Nope", "us-east-1", "ami",
			}},
			kind: ErrLookup,
		},
		{
			name: "findinmap unknown key",
			value: map[string]any{"Fn::FindInMap": []any{
				"RegionMap", "us-east-1", "nope",
			}},
			kind: ErrLookup,
		},
		{
			name:  "getazs unknown region",
			value: map[string]any{"Fn::GetAZs": "mars-north-1"},
			kind:  ErrReference,
		},
		{
			name:  "getatt unknown resource",
			value: map[string]any{"Fn::GetAtt": []any{"Nope", "Arn"}},
			kind:  ErrReference,
		},
		{
			name:  "importvalue without imports",
			value: map[string]any{"Fn::ImportValue": "shared-vpc"},
			kind:  ErrReference,
		},
		{
			name:  "if needs three values",
			value: map[string]any{"Fn::If": []any{"IsProd", "only"}},
			kind:  ErrShape,
		},
		{
			name:  "base64 rejects non-string",
			value: map[string]any{"Fn::Base64": []any{"x"}},
			kind:  ErrShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := renderOutput(t, outputDoc(tt.value))
			if err == nil {
				t.Fatalf("expected error, rendered fine")
			}
			if !errors.Is(err, tt.kind) {
				t.Fatalf("error %v is not kind %v", err, tt.kind)
			}
		})
	}
}

func TestCidrSubdivision(t *testing.T) {
	value := map[string]any{"Fn::Cidr": []any{"192.168.0.0/24", 6, 5}}
	want := []any{
		"192.168.0.0/27",
		"192.168.0.32/27",
		"192.168.0.64/27",
		"192.168.0.96/27",
		"192.168.0.128/27",
		"192.168.0.160/27",
	}

	// Subdivision is pure arithmetic; two renders must agree exactly.
	for i := 0; i < 2; i++ {
		got, err := renderOutput(t, outputDoc(value))
		if err != nil {
			t.Fatalf("render %d: %v", i, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("render %d subnets mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestCidrErrors(t *testing.T) {
	tests := []struct {
		name  string
		value any
		kind  error
	}{
		{
			name:  "host address instead of network",
			value: map[string]any{"Fn::Cidr": []any{"192.168.0.5/24", 2, 5}},
			kind:  ErrConversion,
		},
		{
			name:  "not a cidr block",
			value: map[string]any{"Fn::Cidr": []any{"example", 2, 5}},
			kind:  ErrConversion,
		},
		{
			name:  "too many subnets for the block",
			value: map[string]any{"Fn::Cidr": []any{"10.0.0.0/30", 8, 1}},
			kind:  ErrConversion,
		},
		{
			name:  "wrong arity",
			value: map[string]any{"Fn::Cidr": []any{"10.0.0.0/24", 2}},
			kind:  ErrShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := renderOutput(t, outputDoc(tt.value))
			if !errors.Is(err, tt.kind) {
				t.Fatalf("error %v is not kind %v", err, tt.kind)
			}
		})
	}
}

func TestImportValue(t *testing.T) {
	imports := WithImports(map[string]string{"shared-vpc": "vpc-12345678"})

	got, err := renderOutput(t, outputDoc(map[string]any{"Fn::ImportValue": "shared-vpc"}), imports)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "vpc-12345678" {
		t.Fatalf("imported %v, want vpc-12345678", got)
	}

	_, err = renderOutput(t, outputDoc(map[string]any{"Fn::ImportValue": "other"}), imports)
	if !errors.Is(err, ErrReference) {
		t.Fatalf("unknown export: error %v is not ErrReference", err)
	}
}

func TestEnhancedFindInMap(t *testing.T) {
	doc := outputDoc(map[string]any{"Fn::FindInMap": []any{
		"RegionMap", "eu-central-1", "ami",
		map[string]any{"DefaultValue": "ami-fallback"},
	}})
	doc["Transform"] = "AWS::LanguageExtensions"

	got, err := renderOutput(t, doc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "ami-fallback" {
		t.Fatalf("got %v, want the DefaultValue fallback", got)
	}

	// Without the transform the fourth argument is an arity error.
	_, err = renderOutput(t, outputDoc(map[string]any{"Fn::FindInMap": []any{
		"RegionMap", "eu-central-1", "ami",
		map[string]any{"DefaultValue": "ami-fallback"},
	}}))
	if !errors.Is(err, ErrShape) {
		t.Fatalf("error %v is not ErrShape", err)
	}
}

func TestResourceMetadataOverrides(t *testing.T) {
	doc := outputDoc(map[string]any{"Fn::GetAtt": []any{"Queue", "Arn"}})
	doc["Resources"].(map[string]any)["Queue"] = map[string]any{
		"Type": "AWS::SQS::Queue",
		"Metadata": map[string]any{
			MetadataKey: map[string]any{
				"ref": "https://sqs.us-east-1.amazonaws.com/555555555555/orders",
				"attribute-values": map[string]any{
					"Arn": "arn:aws:sqs:us-east-1:555555555555:orders",
				},
			},
		},
		"Properties": map[string]any{},
	}

	got, err := renderOutput(t, doc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "arn:aws:sqs:us-east-1:555555555555:orders" {
		t.Fatalf("attribute override not applied, got %v", got)
	}

	doc["Outputs"].(map[string]any)["Result"].(map[string]any)["Value"] = map[string]any{"Ref": "Queue"}
	got, err = renderOutput(t, doc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "https://sqs.us-east-1.amazonaws.com/555555555555/orders" {
		t.Fatalf("ref override not applied, got %v", got)
	}
}

func TestPseudoOverrides(t *testing.T) {
	pseudo := DefaultPseudo()
	pseudo.AccountID = "123456789012"
	pseudo.StackName = "orders-prod"

	got, err := renderOutput(t,
		outputDoc(map[string]any{"Fn::Sub": "${AWS::StackName}-${AWS::AccountId}"}),
		WithPseudo(pseudo))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "orders-prod-123456789012" {
		t.Fatalf("got %v", got)
	}
}
