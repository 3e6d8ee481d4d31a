package outship

import (
	"context"
	"fmt"

	"github.com/outship-io/outship/internal/clock"
	"go.uber.org/zap"
)

// ShippableCheck refreshes the shippable flags of open shipments from the
// committed quantities of their source orders.
type ShippableCheck struct {
	store  RecordStore
	lookup Lookup
	logger *zap.Logger
	clock  clock.Clock
}

func NewShippableCheck(store RecordStore, lookup Lookup, optFns ...func(*EngineOptions)) *ShippableCheck {
	o := newEngineOptions(optFns)
	return &ShippableCheck{
		store:  store,
		lookup: lookup,
		logger: o.Logger,
		clock:  o.Clock,
	}
}

type ShippableInput struct {
	// ShipmentID limits the check to one shipment. Zero means all open shipments.
	ShipmentID ID
}

func (c *ShippableCheck) Run(ctx context.Context, params *ShippableInput) (*Summary, error) {
	if params == nil {
		params = &ShippableInput{}
	}
	summary := &Summary{}
	ids := []ID{params.ShipmentID}
	if params.ShipmentID.IsZero() {
		open, err := c.lookup.OpenShipments(ctx)
		if err != nil {
			err = LookupError{Query: "open shipments", Cause: err}
			c.logger.Error("shippable check aborted", zap.Error(err))
			summary.Fail("collect", err)
			return summary, nil
		}
		ids = open
	}
	orders := make(map[ID]*SourceOrder)
	for _, id := range ids {
		summary.Add(c.checkShipment(ctx, id, orders))
	}
	c.logger.Info("shippable check finished",
		zap.Int64("scope", int64(params.ShipmentID)),
		zap.Int("evaluated", summary.Evaluated),
		zap.Int("saved", summary.Saved),
		zap.Int("errors", summary.Errors))
	return summary, nil
}

func (c *ShippableCheck) checkShipment(ctx context.Context, id ID, orders map[ID]*SourceOrder) UnitResult {
	unit := fmt.Sprintf("shipment#%v", id)
	s, err := c.store.GetShipment(ctx, id)
	if err != nil {
		c.logger.Error("failed to load shipment", zap.Int64("shipment_id", int64(id)), zap.Error(err))
		return Failed(unit, err)
	}
	if !s.Status.Open() {
		return Succeeded(unit, false)
	}
	changed, err := c.evaluate(ctx, s, orders)
	if err != nil {
		return Failed(unit, err)
	}
	if !changed {
		return Succeeded(unit, false)
	}
	s.UpdatedAt = clock.FormatRFC3339Nano(c.clock.Now())
	if err := c.store.PutShipment(ctx, s); err != nil {
		c.logger.Error("failed to save shippable flags",
			zap.Int64("shipment_id", int64(id)),
			zap.Bool("shippable", s.Shippable),
			zap.Error(err))
		return Failed(unit, err)
	}
	return Succeeded(unit, true)
}

// evaluate recomputes the line and header flags of s in memory and reports
// whether any of them changed. Source orders are cached in orders.
func (c *ShippableCheck) evaluate(ctx context.Context, s *Shipment, orders map[ID]*SourceOrder) (bool, error) {
	changed := false
	all := true
	for i := range s.Lines {
		l := &s.Lines[i]
		if l.QuantityRemaining <= 0 {
			continue
		}
		var src *SourceOrderLine
		if needsCommitment(l) && !l.SourceOrderID.IsZero() {
			o, ok := orders[l.SourceOrderID]
			if !ok {
				loaded, err := c.store.GetSourceOrder(ctx, l.SourceOrderID)
				if err != nil {
					c.logger.Error("failed to load source order",
						zap.Int64("shipment_id", int64(s.ID)),
						zap.Int64("source_order_id", int64(l.SourceOrderID)),
						zap.Error(err))
					return false, err
				}
				orders[l.SourceOrderID] = loaded
				o = loaded
			}
			src = o.Line(l.SourceOrderLineKey)
		}
		ok := LineShippable(l, src)
		if l.Shippable != ok {
			l.Shippable = ok
			changed = true
		}
		all = all && ok
	}
	if s.Shippable != all {
		s.Shippable = all
		changed = true
	}
	return changed, nil
}

func needsCommitment(l *Line) bool {
	return !l.FreightCharge && l.ItemType != ItemTypeNonInventory
}

// LineShippable reports whether a line can ship. Freight and non-inventory
// lines always can; other lines need their remaining quantity committed on
// the source order line.
func LineShippable(l *Line, src *SourceOrderLine) bool {
	if !needsCommitment(l) || l.QuantityRemaining <= 0 {
		return true
	}
	return src != nil && src.QuantityCommitted >= l.QuantityRemaining
}
