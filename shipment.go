package outship

// Recalculate derives every computed field of a shipment from its lines:
// remaining quantities, line and total weight, freight total and status.
func Recalculate(s *Shipment) {
	var toFulfill, remaining int
	weight, freight := Zero, Zero
	for i := range s.Lines {
		l := &s.Lines[i]
		l.QuantityRemaining = max(l.QuantityToFulfill-l.QuantityFulfilled, 0)
		l.Weight = l.ItemWeight.MulInt(l.QuantityToFulfill)
		weight = weight.Add(l.Weight)
		if l.FreightCharge {
			freight = freight.Add(l.Amount)
		}
		toFulfill += l.QuantityToFulfill
		remaining += l.QuantityRemaining
	}
	s.TotalWeight = weight
	s.TotalFreightCharge = freight
	s.Status = DeriveStatus(toFulfill, remaining)
}

// SerialsRequired is the number of serial numbers the shipment needs before
// it can be fulfilled.
func SerialsRequired(s *Shipment) int {
	n := 0
	for _, l := range s.Lines {
		if l.Serialized {
			n += l.QuantityToFulfill
		}
	}
	return n
}

// TimezoneTable maps Olson timezone names to timezone list keys.
type TimezoneTable map[string]int

func DefaultTimezoneTable() TimezoneTable {
	return TimezoneTable{
		"America/Los_Angeles": 5,
		"America/Denver":      7,
		"America/Phoenix":     8,
		"America/Chicago":     10,
		"America/New_York":    14,
		"US/East-Indiana":     15,
	}
}

// Key returns the list key for the timezone, or 0 when unknown.
func (t TimezoneTable) Key(olson string) int {
	return t[olson]
}
