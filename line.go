package outship

import "github.com/outship-io/outship/internal/constant"

var minimumRate = MustParseDecimal(constant.MinimumRate)

// NewLineInput describes a source order line selected onto a shipment.
type NewLineInput struct {
	LineID        ID
	SourceOrderID ID
	SourceLine    SourceOrderLine
	ItemType      ItemType
	Quantity      int
	Rate          Decimal
	ItemWeight    Decimal
	Serialized    bool
	FreightCharge bool
	StructureTag  string
	// LegacyShippable marks every new line shippable regardless of item type.
	LegacyShippable bool
}

// NewLine builds a shipment line from a selected source order line.
func NewLine(in NewLineInput) Line {
	rate := in.Rate
	if rate.IsZero() {
		rate = minimumRate
	}
	return Line{
		LineID:             in.LineID,
		SourceOrderID:      in.SourceOrderID,
		SourceOrderLineKey: in.SourceLine.Key,
		ItemID:             in.SourceLine.ItemID,
		ItemType:           in.ItemType,
		QuantityToFulfill:  in.Quantity,
		QuantityRemaining:  in.Quantity,
		Serialized:         in.Serialized,
		FreightCharge:      in.FreightCharge,
		Shippable:          in.LegacyShippable || in.ItemType == ItemTypeNonInventory,
		Rate:               rate,
		Amount:             rate.MulInt(in.Quantity),
		ItemWeight:         in.ItemWeight,
		Weight:             in.ItemWeight.MulInt(in.Quantity),
		WorkOrderID:        in.SourceLine.WorkOrderID,
		StructureTag:       in.StructureTag,
	}
}
