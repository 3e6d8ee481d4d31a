package outship

import (
	"context"
	"fmt"

	"github.com/outship-io/outship/internal/clock"
	"go.uber.org/zap"
)

// SerialGuard keeps the serial assignment records of serialized lines within
// quota: never more slots for a line than its quantity to fulfill.
type SerialGuard struct {
	store  RecordStore
	lookup Lookup
	logger *zap.Logger
	clock  clock.Clock
}

func NewSerialGuard(store RecordStore, lookup Lookup, optFns ...func(*EngineOptions)) *SerialGuard {
	o := newEngineOptions(optFns)
	return &SerialGuard{
		store:  store,
		lookup: lookup,
		logger: o.Logger,
		clock:  o.Clock,
	}
}

// SerialSlotRequest identifies a serialized line and its target quantity.
type SerialSlotRequest struct {
	ShipmentID   ID
	LineKey      ID
	ItemID       ID
	LocationID   ID
	Quantity     int
	StructureTag string
}

type EnsureSerialSlotsOutput struct {
	Existing int
	Created  int
	Trimmed  int
	// Excess counts assigned serials beyond the quantity that were kept.
	// The line then holds more than Quantity records: the exact quota is
	// relaxed rather than discard an assigned serial.
	Excess int
}

// EnsureSerialSlots creates unassigned slots until the line has exactly
// Quantity records. Surplus unassigned slots are removed; assigned serials
// are never discarded.
func (g *SerialGuard) EnsureSerialSlots(ctx context.Context, req SerialSlotRequest) (*EnsureSerialSlotsOutput, error) {
	existing, err := g.lookup.SerialAssignmentsForLine(ctx, req.ShipmentID, req.LineKey)
	if err != nil {
		return &EnsureSerialSlotsOutput{}, LookupError{Query: "serial assignments for line", Cause: err}
	}
	target := max(req.Quantity, 0)
	count := len(existing)
	out := &EnsureSerialSlotsOutput{Existing: count}
	for count < target {
		slot := &SerialAssignment{
			LinkedShipmentID: req.ShipmentID,
			ItemID:           req.ItemID,
			LocationID:       req.LocationID,
			LineKey:          req.LineKey,
			StructureTag:     req.StructureTag,
			CreatedAt:        clock.FormatRFC3339Nano(g.clock.Now()),
		}
		if err := g.store.CreateSerialAssignment(ctx, slot); err != nil {
			g.logger.Error("failed to create serial slot",
				zap.Int64("line_key", int64(req.LineKey)),
				zap.Int("count", count),
				zap.Int("quantity", target),
				zap.Error(err))
			return out, err
		}
		count++
		out.Created++
	}
	for i := len(existing) - 1; i >= 0 && count > target; i-- {
		if existing[i].Assigned() {
			continue
		}
		if err := g.store.DeleteSerialAssignment(ctx, existing[i].ID); err != nil {
			g.logger.Warn("failed to trim serial slot",
				zap.Int64("serial_assignment_id", int64(existing[i].ID)),
				zap.Error(err))
			continue
		}
		count--
		out.Trimmed++
	}
	out.Excess = max(count-target, 0)
	if out.Excess > 0 {
		g.logger.Warn("assigned serials exceed line quantity",
			zap.Int64("line_key", int64(req.LineKey)),
			zap.Int("excess", out.Excess))
	}
	return out, nil
}

// DeleteSerialSlots deletes every record of the line. Each delete is
// attempted independently.
func (g *SerialGuard) DeleteSerialSlots(ctx context.Context, shipmentID, lineKey ID) (*Summary, error) {
	records, err := g.lookup.SerialAssignmentsForLine(ctx, shipmentID, lineKey)
	if err != nil {
		return &Summary{}, LookupError{Query: "serial assignments for line", Cause: err}
	}
	return g.deleteAll(ctx, records), nil
}

// ReclaimOrphans deletes every record whose shipment no longer exists.
func (g *SerialGuard) ReclaimOrphans(ctx context.Context) (*Summary, error) {
	records, err := g.lookup.OrphanedSerialAssignments(ctx)
	if err != nil {
		return &Summary{}, LookupError{Query: "orphaned serial assignments", Cause: err}
	}
	summary := g.deleteAll(ctx, records)
	g.logger.Info("orphaned serial assignments reclaimed",
		zap.Int("found", len(records)),
		zap.Int("deleted", summary.Deleted),
		zap.Int("errors", summary.Errors))
	return summary, nil
}

func (g *SerialGuard) deleteAll(ctx context.Context, records []SerialAssignment) *Summary {
	summary := &Summary{}
	for _, a := range records {
		unit := fmt.Sprintf("serial_assignment#%v", a.ID)
		if err := g.store.DeleteSerialAssignment(ctx, a.ID); err != nil {
			g.logger.Warn("failed to delete serial assignment",
				zap.Int64("serial_assignment_id", int64(a.ID)),
				zap.Int64("line_key", int64(a.LineKey)),
				zap.Error(err))
			summary.Add(Failed(unit, err))
			continue
		}
		summary.Add(Succeeded(unit, false))
		summary.Deleted++
	}
	return summary
}

type AssignSerialInput struct {
	AssignmentID ID
	SerialNumber string
}

// AssignSerial sets the serial number of a slot. Slots of fulfilled
// shipments are frozen.
func (g *SerialGuard) AssignSerial(ctx context.Context, params *AssignSerialInput) (*SerialAssignment, error) {
	if params == nil || params.AssignmentID.IsZero() {
		return nil, IDNotProvidedError{}
	}
	return g.updateSlot(ctx, params.AssignmentID, "assign serial", params.SerialNumber)
}

// UnassignSerial clears the serial number of a slot, keeping the slot.
func (g *SerialGuard) UnassignSerial(ctx context.Context, assignmentID ID) (*SerialAssignment, error) {
	if assignmentID.IsZero() {
		return nil, IDNotProvidedError{}
	}
	return g.updateSlot(ctx, assignmentID, "unassign serial", "")
}

func (g *SerialGuard) updateSlot(ctx context.Context, id ID, op, serial string) (*SerialAssignment, error) {
	a, err := g.store.GetSerialAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.LinkedShipmentID.IsZero() {
		return nil, NotFoundError{RecordType: "shipment", ID: 0}
	}
	s, err := g.store.GetShipment(ctx, a.LinkedShipmentID)
	if err != nil {
		return nil, err
	}
	if s.Status == StatusFulfilled {
		return nil, ShipmentFulfilledError{ShipmentID: s.ID, Operation: op}
	}
	a.SerialNumber = serial
	if err := g.store.PutSerialAssignment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
