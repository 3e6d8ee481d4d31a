package outship

// Operation is the kind of save that produced a pair of line snapshots.
type Operation string

const (
	OperationCreate     Operation = "create"
	OperationEdit       Operation = "edit"
	OperationInlineEdit Operation = "xedit"
	OperationDelete     Operation = "delete"
)

// LineSnapshot is one join-keyed entry of a shipment's lines at a point in
// time.
type LineSnapshot struct {
	Key            ID
	Quantity       int
	SourceOrderID  ID
	ShipmentID     ID
	ShipmentNumber string
	Serialized     bool
	ItemID         ID
	LocationID     ID
	StructureTag   string
}

// LineDelta is a signed change in the quantity a shipment claims from one
// source order line.
type LineDelta struct {
	Key            ID
	SourceOrderID  ID
	ShipmentID     ID
	ShipmentNumber string
	Serialized     bool
	OldQuantity    int
	NewQuantity    int
	Delta          int
}

// Snapshot materializes the lines of s keyed by their source order line.
// Lines sharing a join key are summed. A nil shipment has no lines.
func Snapshot(s *Shipment) []LineSnapshot {
	if s == nil {
		return nil
	}
	var out []LineSnapshot
	index := make(map[ID]int)
	for _, l := range s.Lines {
		if i, ok := index[l.SourceOrderLineKey]; ok {
			out[i].Quantity += l.QuantityToFulfill
			continue
		}
		index[l.SourceOrderLineKey] = len(out)
		out = append(out, LineSnapshot{
			Key:            l.SourceOrderLineKey,
			Quantity:       l.QuantityToFulfill,
			SourceOrderID:  l.SourceOrderID,
			ShipmentID:     s.ID,
			ShipmentNumber: s.Number,
			Serialized:     l.Serialized,
			ItemID:         l.ItemID,
			LocationID:     s.LocationID,
			StructureTag:   l.StructureTag,
		})
	}
	return out
}

// ComputeDeltas diffs two snapshots by join key. For OperationDelete the new
// snapshot is ignored and every old line is released in full.
func ComputeDeltas(oldLines, newLines []LineSnapshot, op Operation) []LineDelta {
	var deltas []LineDelta
	if op == OperationDelete {
		for _, o := range oldLines {
			if o.Quantity == 0 {
				continue
			}
			deltas = append(deltas, newDelta(o, o.Quantity, 0))
		}
		return deltas
	}

	newByKey := make(map[ID]LineSnapshot, len(newLines))
	for _, n := range newLines {
		newByKey[n.Key] = n
	}
	oldKeys := make(map[ID]struct{}, len(oldLines))
	for _, o := range oldLines {
		oldKeys[o.Key] = struct{}{}
		n, ok := newByKey[o.Key]
		switch {
		case !ok:
			if o.Quantity != 0 {
				deltas = append(deltas, newDelta(o, o.Quantity, 0))
			}
		case n.Quantity != o.Quantity:
			deltas = append(deltas, newDelta(n, o.Quantity, n.Quantity))
		}
	}
	for _, n := range newLines {
		if _, ok := oldKeys[n.Key]; ok || n.Quantity == 0 {
			continue
		}
		deltas = append(deltas, newDelta(n, 0, n.Quantity))
	}
	return deltas
}

func newDelta(s LineSnapshot, oldQty, newQty int) LineDelta {
	return LineDelta{
		Key:            s.Key,
		SourceOrderID:  s.SourceOrderID,
		ShipmentID:     s.ShipmentID,
		ShipmentNumber: s.ShipmentNumber,
		Serialized:     s.Serialized,
		OldQuantity:    oldQty,
		NewQuantity:    newQty,
		Delta:          newQty - oldQty,
	}
}
