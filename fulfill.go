package outship

import (
	"context"
	"fmt"

	"github.com/outship-io/outship/internal/clock"
	"go.uber.org/zap"
)

// Fulfiller fulfills every remaining quantity of a shipment in one step.
type Fulfiller struct {
	store     RecordStore
	hooks     *ShipmentHooks
	shippable *ShippableCheck
	logger    *zap.Logger
	clock     clock.Clock
}

func NewFulfiller(store RecordStore, lookup Lookup, optFns ...func(*EngineOptions)) *Fulfiller {
	o := newEngineOptions(optFns)
	return &Fulfiller{
		store:     store,
		hooks:     NewShipmentHooks(store, lookup, optFns...),
		shippable: NewShippableCheck(store, lookup, optFns...),
		logger:    o.Logger,
		clock:     o.Clock,
	}
}

type FulfillInput struct {
	ShipmentID ID
}

// Run re-checks shippability and serial coverage, then marks every line
// fulfilled. Ineligible shipments are left unchanged and reported with a
// NotEligibleError.
func (f *Fulfiller) Run(ctx context.Context, params *FulfillInput) (*Summary, error) {
	if params == nil || params.ShipmentID.IsZero() {
		return &Summary{}, IDNotProvidedError{}
	}
	summary := &Summary{}
	unit := fmt.Sprintf("shipment#%v", params.ShipmentID)
	s, err := f.store.GetShipment(ctx, params.ShipmentID)
	if err != nil {
		return summary, err
	}
	if _, err := f.shippable.evaluate(ctx, s, make(map[ID]*SourceOrder)); err != nil {
		return summary, err
	}
	inspection, err := f.hooks.Inspect(ctx, s)
	if err != nil {
		return summary, err
	}
	if !inspection.CanFulfillAll {
		err := NotEligibleError{ShipmentID: s.ID, Reason: ineligibleReason(s, inspection)}
		f.logger.Warn("fulfillment refused", zap.Int64("shipment_id", int64(s.ID)), zap.Error(err))
		return summary, err
	}
	for i := range s.Lines {
		s.Lines[i].QuantityFulfilled = s.Lines[i].QuantityToFulfill
	}
	Recalculate(s)
	s.UpdatedAt = clock.FormatRFC3339Nano(f.clock.Now())
	if err := f.store.PutShipment(ctx, s); err != nil {
		f.logger.Error("failed to save fulfillment", zap.Int64("shipment_id", int64(s.ID)), zap.Error(err))
		summary.Add(Failed(unit, err))
		return summary, nil
	}
	f.logger.Info("shipment fulfilled", zap.Int64("shipment_id", int64(s.ID)), zap.String("number", s.Number))
	summary.Add(Succeeded(unit, true))
	return summary, nil
}

func ineligibleReason(s *Shipment, in *Inspection) string {
	switch {
	case !s.Status.Open():
		return fmt.Sprintf("status is %s", s.Status)
	case !s.Shippable:
		return "not all lines are shippable"
	default:
		return fmt.Sprintf("%d serial numbers not assigned", in.SerialsRemaining)
	}
}
