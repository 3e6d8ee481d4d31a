package outship

import (
	"context"
	"fmt"
	"sync"

	"github.com/outship-io/outship/internal/clock"
	"go.uber.org/zap"
)

// WorkOrderSync copies work order status and weight onto shipment lines.
// It only saves shipments that actually changed, so re-running it without
// work order changes saves nothing.
type WorkOrderSync struct {
	store       RecordStore
	lookup      Lookup
	logger      *zap.Logger
	clock       clock.Clock
	concurrency int
}

func NewWorkOrderSync(store RecordStore, lookup Lookup, optFns ...func(*EngineOptions)) *WorkOrderSync {
	o := newEngineOptions(optFns)
	return &WorkOrderSync{
		store:       store,
		lookup:      lookup,
		logger:      o.Logger,
		clock:       o.Clock,
		concurrency: o.SyncConcurrency,
	}
}

type SyncInput struct {
	// ShipmentID limits the run to one shipment. Zero means all open shipments.
	ShipmentID ID
}

type SyncOutput struct {
	// Linked covers shipments whose lines received a late work order.
	Linked Summary
	// Synced covers the status and weight reconciliation.
	Synced Summary
}

// Total folds both phases into one summary.
func (o *SyncOutput) Total() *Summary {
	total := &Summary{}
	total.Merge(&o.Linked)
	total.Merge(&o.Synced)
	return total
}

type workOrderTuple struct {
	ShipmentID  ID
	LineID      ID
	WorkOrderID ID
	Found       bool
	Status      WorkOrderStatus
	Weight      Decimal
}

type shipmentGroup[T any] struct {
	shipmentID ID
	items      []T
}

// Run executes the sync. Lookup failures are recorded in the output and only
// abort the phase that needed them.
func (e *WorkOrderSync) Run(ctx context.Context, params *SyncInput) (*SyncOutput, error) {
	if params == nil {
		params = &SyncInput{}
	}
	out := &SyncOutput{}
	e.linkMissingWorkOrders(ctx, params.ShipmentID, &out.Linked)

	tuples, err := e.collect(ctx, params.ShipmentID)
	if err != nil {
		e.logger.Error("work order sync aborted", zap.Error(err))
		out.Synced.Fail("collect", err)
		return out, nil
	}
	groups := groupByShipment(tuples, func(t workOrderTuple) ID { return t.ShipmentID })
	for _, r := range e.reconcileAll(ctx, groups) {
		out.Synced.Add(r)
	}
	e.logger.Info("work order sync finished",
		zap.Int64("scope", int64(params.ShipmentID)),
		zap.Int("linked", out.Linked.Saved),
		zap.Int("evaluated", out.Synced.Evaluated),
		zap.Int("saved", out.Synced.Saved),
		zap.Int("errors", out.Linked.Errors+out.Synced.Errors))
	return out, nil
}

func (e *WorkOrderSync) linkMissingWorkOrders(ctx context.Context, scope ID, summary *Summary) {
	rows, err := e.lookup.LinesMissingWorkOrder(ctx)
	if err != nil {
		err = LookupError{Query: "lines missing work order", Cause: err}
		e.logger.Error("retroactive work order linking skipped", zap.Error(err))
		summary.Fail("link", err)
		return
	}
	if !scope.IsZero() {
		var scoped []UnlinkedLine
		for _, r := range rows {
			if r.ShipmentID == scope {
				scoped = append(scoped, r)
			}
		}
		rows = scoped
	}
	for _, g := range groupByShipment(rows, func(r UnlinkedLine) ID { return r.ShipmentID }) {
		summary.Add(e.linkShipment(ctx, g))
	}
}

func (e *WorkOrderSync) linkShipment(ctx context.Context, g shipmentGroup[UnlinkedLine]) UnitResult {
	unit := fmt.Sprintf("shipment#%v", g.shipmentID)
	s, err := e.store.GetShipment(ctx, g.shipmentID)
	if err != nil {
		e.logger.Error("failed to load shipment", zap.Int64("shipment_id", int64(g.shipmentID)), zap.Error(err))
		return Failed(unit, err)
	}
	changed := false
	for _, r := range g.items {
		line := s.Line(r.LineID)
		if line == nil || !line.WorkOrderID.IsZero() || r.WorkOrderID.IsZero() {
			continue
		}
		line.WorkOrderID = r.WorkOrderID
		changed = true
	}
	if !changed {
		return Succeeded(unit, false)
	}
	s.UpdatedAt = clock.FormatRFC3339Nano(e.clock.Now())
	if err := e.store.PutShipment(ctx, s); err != nil {
		e.logger.Error("failed to save linked work orders",
			zap.Int64("shipment_id", int64(g.shipmentID)),
			zap.Any("lines", g.items),
			zap.Error(err))
		return Failed(unit, err)
	}
	return Succeeded(unit, true)
}

func (e *WorkOrderSync) collect(ctx context.Context, scope ID) ([]workOrderTuple, error) {
	lines, err := e.lookup.OpenWorkOrderLines(ctx, scope)
	if err != nil {
		return nil, LookupError{Query: "open work order lines", Cause: err}
	}
	var ids []ID
	seen := make(map[ID]struct{})
	for _, l := range lines {
		if _, ok := seen[l.WorkOrderID]; ok {
			continue
		}
		seen[l.WorkOrderID] = struct{}{}
		ids = append(ids, l.WorkOrderID)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	orders, err := e.lookup.WorkOrders(ctx, ids)
	if err != nil {
		return nil, LookupError{Query: "work orders", Cause: err}
	}
	tuples := make([]workOrderTuple, 0, len(lines))
	for _, l := range lines {
		wo, ok := orders[l.WorkOrderID]
		if !ok {
			e.logger.Warn("work order not found", zap.Int64("work_order_id", int64(l.WorkOrderID)))
		}
		tuples = append(tuples, workOrderTuple{
			ShipmentID:  l.ShipmentID,
			LineID:      l.LineID,
			WorkOrderID: l.WorkOrderID,
			Found:       ok,
			Status:      wo.Status,
			Weight:      wo.UnitsPouredWeight,
		})
	}
	return tuples, nil
}

func groupByShipment[T any](items []T, key func(T) ID) []shipmentGroup[T] {
	var groups []shipmentGroup[T]
	index := make(map[ID]int)
	for _, it := range items {
		id := key(it)
		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, shipmentGroup[T]{shipmentID: id})
		}
		groups[i].items = append(groups[i].items, it)
	}
	return groups
}

// reconcileAll hands each shipment group to exactly one worker and returns
// the results in group order.
func (e *WorkOrderSync) reconcileAll(ctx context.Context, groups []shipmentGroup[workOrderTuple]) []UnitResult {
	results := make([]UnitResult, len(groups))
	indexes := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < min(e.concurrency, len(groups)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexes {
				results[idx] = e.reconcileShipment(ctx, groups[idx])
			}
		}()
	}
	for i := range groups {
		indexes <- i
	}
	close(indexes)
	wg.Wait()
	return results
}

func (e *WorkOrderSync) reconcileShipment(ctx context.Context, g shipmentGroup[workOrderTuple]) UnitResult {
	unit := fmt.Sprintf("shipment#%v", g.shipmentID)
	s, err := e.store.GetShipment(ctx, g.shipmentID)
	if err != nil {
		e.logger.Error("failed to load shipment", zap.Int64("shipment_id", int64(g.shipmentID)), zap.Error(err))
		return Failed(unit, err)
	}
	changed := false
	for _, t := range g.items {
		line := s.Line(t.LineID)
		if line == nil {
			e.logger.Warn("shipment line not found",
				zap.Int64("shipment_id", int64(g.shipmentID)),
				zap.Int64("line_id", int64(t.LineID)))
			continue
		}
		if applyWorkOrder(line, t) {
			changed = true
		}
	}
	if begun := AllWorkOrdersBegun(s); begun != s.AllWorkOrdersBegun {
		s.AllWorkOrdersBegun = begun
		changed = true
	}
	if !changed {
		return Succeeded(unit, false)
	}
	s.UpdatedAt = clock.FormatRFC3339Nano(e.clock.Now())
	if err := e.store.PutShipment(ctx, s); err != nil {
		e.logger.Error("failed to save work order sync",
			zap.Int64("shipment_id", int64(g.shipmentID)),
			zap.Any("tuples", g.items),
			zap.Error(err))
		return Failed(unit, err)
	}
	return Succeeded(unit, true)
}

// applyWorkOrder writes only the fields that differ. The status of a work
// order that could not be found is left alone.
func applyWorkOrder(line *Line, t workOrderTuple) bool {
	changed := false
	if t.Found {
		if begun := t.Status.Begun(); line.WorkOrderBegun != begun {
			line.WorkOrderBegun = begun
			changed = true
		}
		if line.WorkOrderStatus != t.Status {
			line.WorkOrderStatus = t.Status
			changed = true
		}
	}
	if !line.WorkOrderWeight.Equal(t.Weight) {
		line.WorkOrderWeight = t.Weight
		changed = true
	}
	return changed
}

// AllWorkOrdersBegun reports whether every line with a work order has begun.
func AllWorkOrdersBegun(s *Shipment) bool {
	for _, l := range s.Lines {
		if !l.WorkOrderID.IsZero() && !l.WorkOrderBegun {
			return false
		}
	}
	return true
}
