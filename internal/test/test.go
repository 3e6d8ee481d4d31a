// Package test holds record fixtures shared by the package tests.
package test

import (
	"errors"
	"testing"

	"github.com/outship-io/outship"
)

var ErrorTest = errors.New("test")

// NewLine returns an inventory line claiming qty units of source order line key.
func NewLine(lineID, sourceOrderID, key outship.ID, qty int) outship.Line {
	return outship.Line{
		LineID:             lineID,
		SourceOrderID:      sourceOrderID,
		SourceOrderLineKey: key,
		ItemID:             key * 10,
		ItemType:           outship.ItemTypeInventory,
		QuantityToFulfill:  qty,
		QuantityRemaining:  qty,
		Rate:               outship.MustParseDecimal("2.5"),
		Amount:             outship.MustParseDecimal("2.5").MulInt(qty),
		ItemWeight:         outship.MustParseDecimal("1.5"),
		Weight:             outship.MustParseDecimal("1.5").MulInt(qty),
	}
}

// NewShipment returns a pending shipment with the given lines, recalculated.
func NewShipment(id outship.ID, lines ...outship.Line) *outship.Shipment {
	s := &outship.Shipment{
		ID:         id,
		Number:     "SHIP" + id.String(),
		LocationID: 1,
		Lines:      lines,
	}
	outship.Recalculate(s)
	return s
}

// NewSourceOrder returns a source order with one line per key, each ordering
// and committing qty units.
func NewSourceOrder(id outship.ID, qty int, keys ...outship.ID) *outship.SourceOrder {
	o := &outship.SourceOrder{ID: id, Number: "SO" + id.String()}
	for _, k := range keys {
		o.Lines = append(o.Lines, outship.SourceOrderLine{
			Key:               k,
			ItemID:            k * 10,
			Quantity:          qty,
			QuantityCommitted: qty,
		})
	}
	return o
}

// AssertError fails the test when got does not match want. A nil want
// requires a nil error; otherwise got must wrap an error equal to want.
func AssertError(t *testing.T, got, want error, prefix string) bool {
	t.Helper()
	if want == nil {
		if got != nil {
			t.Errorf("%s error = %v, want nil", prefix, got)
			return false
		}
		return true
	}
	if !errors.Is(got, want) {
		t.Errorf("%s error = %v, want %v", prefix, got, want)
		return false
	}
	return true
}
