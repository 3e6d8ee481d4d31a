package outship

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Decimal is a fixed-point number used for weights, rates and amounts.
// It is stored as a DynamoDB number.
type Decimal struct {
	decimal.Decimal
}

var Zero = Decimal{decimal.Zero}

func NewDecimal(d decimal.Decimal) Decimal {
	return Decimal{d}
}

func DecimalFromInt(i int64) Decimal {
	return Decimal{decimal.NewFromInt(i)}
}

func ParseDecimal(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, err
	}
	return Decimal{d}, nil
}

func MustParseDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Decimal) Add(o Decimal) Decimal {
	return Decimal{d.Decimal.Add(o.Decimal)}
}

func (d Decimal) Mul(o Decimal) Decimal {
	return Decimal{d.Decimal.Mul(o.Decimal)}
}

func (d Decimal) MulInt(i int) Decimal {
	return Decimal{d.Decimal.Mul(decimal.NewFromInt(int64(i)))}
}

func (d Decimal) Equal(o Decimal) bool {
	return d.Decimal.Equal(o.Decimal)
}

func (d Decimal) GreaterThan(o Decimal) bool {
	return d.Decimal.GreaterThan(o.Decimal)
}

func (d Decimal) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: d.Decimal.String()}, nil
}

func (d *Decimal) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		return d.set(v.Value)
	case *types.AttributeValueMemberS:
		return d.set(v.Value)
	case *types.AttributeValueMemberNULL:
		*d = Zero
		return nil
	}
	return fmt.Errorf("unsupported attribute value %T for decimal", av)
}

func (d *Decimal) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: decimal must be a scalar", value.Line)
	}
	return d.set(value.Value)
}

func (d Decimal) MarshalYAML() (any, error) {
	return d.Decimal.String(), nil
}

func (d *Decimal) set(s string) error {
	if s == "" {
		*d = Zero
		return nil
	}
	parsed, err := ParseDecimal(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
