package outship

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"gopkg.in/yaml.v3"
)

func TestDecimalDynamoDBAttributeValue(t *testing.T) {
	type record struct {
		Weight Decimal `dynamodbav:"weight"`
	}
	item, err := attributevalue.MarshalMap(record{Weight: MustParseDecimal("12.375")})
	if err != nil {
		t.Fatalf("MarshalMap() error = %v", err)
	}
	n, ok := item["weight"].(*types.AttributeValueMemberN)
	if !ok || n.Value != "12.375" {
		t.Fatalf("MarshalMap() weight got = %#v, want N 12.375", item["weight"])
	}

	tests := []struct {
		name string
		av   types.AttributeValue
		want string
	}{
		{name: "number", av: &types.AttributeValueMemberN{Value: "4.5"}, want: "4.5"},
		{name: "string", av: &types.AttributeValueMemberS{Value: "0.01"}, want: "0.01"},
		{name: "empty string", av: &types.AttributeValueMemberS{Value: ""}, want: "0"},
		{name: "null", av: &types.AttributeValueMemberNULL{Value: true}, want: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got record
			err := attributevalue.UnmarshalMap(map[string]types.AttributeValue{"weight": tt.av}, &got)
			if err != nil {
				t.Fatalf("UnmarshalMap() error = %v", err)
			}
			if !got.Weight.Equal(MustParseDecimal(tt.want)) {
				t.Errorf("UnmarshalMap() got = %v, want %v", got.Weight, tt.want)
			}
		})
	}

	var bad Decimal
	if err := bad.UnmarshalDynamoDBAttributeValue(&types.AttributeValueMemberBOOL{Value: true}); err == nil {
		t.Error("UnmarshalDynamoDBAttributeValue() with BOOL should fail")
	}
}

func TestDecimalYAML(t *testing.T) {
	var v struct {
		Max Decimal `yaml:"max"`
	}
	if err := yaml.Unmarshal([]byte("max: 45000.5\n"), &v); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !v.Max.Equal(MustParseDecimal("45000.5")) {
		t.Errorf("Unmarshal() got = %v, want 45000.5", v.Max)
	}
	if err := yaml.Unmarshal([]byte("max: [1, 2]\n"), &v); err == nil {
		t.Error("Unmarshal() of a sequence should fail")
	}
	out, err := yaml.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != "max: \"45000.5\"\n" {
		t.Errorf("Marshal() got = %q", out)
	}
}
