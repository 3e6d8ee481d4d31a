package outship

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Reconciler propagates line deltas to the source orders they claim from.
type Reconciler struct {
	store  RecordStore
	logger *zap.Logger
}

func NewReconciler(store RecordStore, optFns ...func(*EngineOptions)) *Reconciler {
	o := newEngineOptions(optFns)
	return &Reconciler{
		store:  store,
		logger: o.Logger,
	}
}

type ApplyDeltasInput struct {
	Deltas    []LineDelta
	Operation Operation
}

type ApplyDeltasOutput struct {
	// Results holds one entry per source order, in first-seen order.
	Results []UnitResult
	Summary Summary
}

// ApplyDeltas loads each affected source order once, applies every delta for
// it and saves it once. A failing source order does not stop the others.
func (r *Reconciler) ApplyDeltas(ctx context.Context, params *ApplyDeltasInput) (*ApplyDeltasOutput, error) {
	if params == nil {
		params = &ApplyDeltasInput{}
	}
	out := &ApplyDeltasOutput{}
	for _, g := range groupBySourceOrder(params.Deltas) {
		res := r.applyGroup(ctx, g, params.Operation)
		out.Results = append(out.Results, res)
		out.Summary.Add(res)
	}
	return out, nil
}

type deltaGroup struct {
	sourceOrderID ID
	deltas        []LineDelta
}

func groupBySourceOrder(deltas []LineDelta) []deltaGroup {
	var groups []deltaGroup
	index := make(map[ID]int)
	for _, d := range deltas {
		i, ok := index[d.SourceOrderID]
		if !ok {
			i = len(groups)
			index[d.SourceOrderID] = i
			groups = append(groups, deltaGroup{sourceOrderID: d.SourceOrderID})
		}
		groups[i].deltas = append(groups[i].deltas, d)
	}
	return groups
}

func (r *Reconciler) applyGroup(ctx context.Context, g deltaGroup, op Operation) UnitResult {
	unit := fmt.Sprintf("source_order#%v", g.sourceOrderID)
	if g.sourceOrderID.IsZero() {
		r.logger.Error("deltas without source order", zap.Any("deltas", g.deltas))
		return Failed(unit, IDNotProvidedError{})
	}
	order, err := r.store.GetSourceOrder(ctx, g.sourceOrderID)
	if err != nil {
		r.logger.Error("failed to load source order",
			zap.Int64("source_order_id", int64(g.sourceOrderID)),
			zap.Error(err))
		return Failed(unit, err)
	}
	changed := false
	for _, d := range g.deltas {
		line := order.Line(d.Key)
		if line == nil {
			r.logger.Warn("source order line not found",
				zap.Int64("source_order_id", int64(g.sourceOrderID)),
				zap.Int64("line_key", int64(d.Key)))
			continue
		}
		if applyDelta(line, d, op) {
			changed = true
		}
	}
	if !changed {
		return Succeeded(unit, false)
	}
	if err := r.store.PutSourceOrder(ctx, order); err != nil {
		r.logger.Error("failed to save source order",
			zap.Int64("source_order_id", int64(g.sourceOrderID)),
			zap.Any("deltas", g.deltas),
			zap.Any("lines", order.Lines),
			zap.Error(err))
		return Failed(unit, err)
	}
	r.logger.Info("source order reconciled",
		zap.Int64("source_order_id", int64(g.sourceOrderID)),
		zap.Int("deltas", len(g.deltas)))
	return Succeeded(unit, true)
}

// applyDelta patches one source order line and reports whether it changed.
// Quantity on shipment never drops below zero.
func applyDelta(line *SourceOrderLine, d LineDelta, op Operation) bool {
	changed := false
	qty := max(line.QuantityOnShipment+d.Delta, 0)
	if qty != line.QuantityOnShipment {
		line.QuantityOnShipment = qty
		changed = true
	}
	if op == OperationDelete || d.NewQuantity == 0 {
		if line.RemoveRef(d.ShipmentID) {
			changed = true
		}
		return changed
	}
	if line.AddRef(ShipmentRef{ShipmentID: d.ShipmentID, ShipmentNumber: d.ShipmentNumber}) {
		changed = true
	}
	return changed
}
