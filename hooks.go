package outship

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ShipmentHooks run around every shipment save: BeforeSubmit prepares the
// record, AfterSubmit propagates the change to source orders and serial
// assignments.
type ShipmentHooks struct {
	store      RecordStore
	lookup     Lookup
	reconciler *Reconciler
	serials    *SerialGuard
	logger     *zap.Logger
	timezones  TimezoneTable
	maxWeight  Decimal
	legacy     bool
}

func NewShipmentHooks(store RecordStore, lookup Lookup, optFns ...func(*EngineOptions)) *ShipmentHooks {
	o := newEngineOptions(optFns)
	return &ShipmentHooks{
		store:      store,
		lookup:     lookup,
		reconciler: NewReconciler(store, optFns...),
		serials:    NewSerialGuard(store, lookup, optFns...),
		logger:     o.Logger,
		timezones:  o.TimezoneTable,
		maxWeight:  o.MaxShipmentWeight,
		legacy:     o.LegacyShippable,
	}
}

// NewLine builds the line for a source order line selected onto a shipment.
func (h *ShipmentHooks) NewLine(in NewLineInput) Line {
	in.LegacyShippable = in.LegacyShippable || h.legacy
	return NewLine(in)
}

// SubmitInput carries the record before and after a save. Old is nil on
// create, New is nil on delete.
type SubmitInput struct {
	Operation Operation
	Old       *Shipment
	New       *Shipment
}

// BeforeSubmit recalculates New in place. Inline edits are left untouched.
func (h *ShipmentHooks) BeforeSubmit(ctx context.Context, params *SubmitInput) error {
	if params == nil {
		return IDNotProvidedError{}
	}
	switch params.Operation {
	case OperationInlineEdit:
		return nil
	case OperationDelete:
		if params.Old != nil {
			h.logger.Info("shipment deleted",
				zap.Int64("shipment_id", int64(params.Old.ID)),
				zap.String("number", params.Old.Number),
				zap.String("status", params.Old.Status.String()),
				zap.Int("lines", len(params.Old.Lines)))
		}
		return nil
	}
	s := params.New
	if s == nil {
		return IDNotProvidedError{}
	}
	if params.Operation == OperationEdit && params.Old != nil && len(s.Lines) > len(params.Old.Lines) {
		s.Shippable = false
	}
	Recalculate(s)
	if s.TimezoneKey == 0 && !s.LocationID.IsZero() {
		loc, err := h.store.GetLocation(ctx, s.LocationID)
		if err != nil {
			h.logger.Warn("timezone not set",
				zap.Int64("shipment_id", int64(s.ID)),
				zap.Int64("location_id", int64(s.LocationID)),
				zap.Error(err))
			return nil
		}
		s.TimezoneKey = h.timezones.Key(loc.Timezone)
	}
	return nil
}

type AfterSubmitOutput struct {
	Deltas     []LineDelta
	Reconciled []UnitResult
	// SerialsCreated and SerialsDeleted count serial slot changes.
	SerialsCreated int
	SerialsDeleted int
	Summary        Summary
}

// AfterSubmit applies the line deltas of a save to the source orders and
// keeps serial slots in step with serialized lines. Inline edits are
// scheduler writes and propagate nothing.
func (h *ShipmentHooks) AfterSubmit(ctx context.Context, params *SubmitInput) (*AfterSubmitOutput, error) {
	if params == nil {
		return &AfterSubmitOutput{}, IDNotProvidedError{}
	}
	op := params.Operation
	if op == OperationInlineEdit {
		return &AfterSubmitOutput{}, nil
	}
	newLines := Snapshot(params.New)
	if op == OperationDelete {
		newLines = nil
	}
	deltas := ComputeDeltas(Snapshot(params.Old), newLines, op)
	out := &AfterSubmitOutput{Deltas: deltas}

	applied, err := h.reconciler.ApplyDeltas(ctx, &ApplyDeltasInput{Deltas: deltas, Operation: op})
	if err != nil {
		return out, err
	}
	out.Reconciled = applied.Results
	out.Summary.Merge(&applied.Summary)

	for _, n := range newLines {
		if !n.Serialized {
			continue
		}
		ensured, err := h.serials.EnsureSerialSlots(ctx, SerialSlotRequest{
			ShipmentID:   n.ShipmentID,
			LineKey:      n.Key,
			ItemID:       n.ItemID,
			LocationID:   n.LocationID,
			Quantity:     n.Quantity,
			StructureTag: n.StructureTag,
		})
		out.SerialsCreated += ensured.Created
		out.SerialsDeleted += ensured.Trimmed
		if err != nil {
			out.Summary.Fail(fmt.Sprintf("serial_slots#%v", n.Key), err)
		}
	}
	for _, d := range deltas {
		if !d.Serialized || d.Delta >= 0 || d.NewQuantity != 0 {
			continue
		}
		deleted, err := h.serials.DeleteSerialSlots(ctx, d.ShipmentID, d.Key)
		if err != nil {
			out.Summary.Fail(fmt.Sprintf("serial_slots#%v", d.Key), err)
			continue
		}
		out.SerialsDeleted += deleted.Deleted
		out.Summary.Merge(deleted)
	}
	if op == OperationDelete {
		reclaimed, err := h.serials.ReclaimOrphans(ctx)
		if err != nil {
			out.Summary.Fail("orphans", err)
		} else {
			out.SerialsDeleted += reclaimed.Deleted
			out.Summary.Merge(reclaimed)
		}
	}
	return out, nil
}

// CheckEdit rejects edits of a fulfilled shipment by roles outside the edit
// allow-list.
func (h *ShipmentHooks) CheckEdit(ctx context.Context, s *Shipment, role any) error {
	if s.Status != StatusFulfilled {
		return nil
	}
	roleID, err := ParseID(role)
	if err != nil {
		return err
	}
	allowed, err := h.lookup.EditRoles(ctx)
	if err != nil {
		return LookupError{Query: "edit roles", Cause: err}
	}
	for _, r := range allowed {
		if r == roleID {
			return nil
		}
	}
	return EditNotAllowedError{ShipmentID: s.ID, RoleID: roleID}
}

// Inspection is what an operator needs to know before fulfilling a shipment.
type Inspection struct {
	Overweight       bool    `json:"overweight"`
	TotalWeight      Decimal `json:"total_weight"`
	MaxWeight        Decimal `json:"max_weight"`
	SerialsRequired  int     `json:"serials_required"`
	SerialsAssigned  int     `json:"serials_assigned"`
	SerialsRemaining int     `json:"serials_remaining"`
	CanFulfillAll    bool    `json:"can_fulfill_all"`
}

func (h *ShipmentHooks) Inspect(ctx context.Context, s *Shipment) (*Inspection, error) {
	in := &Inspection{
		TotalWeight:     s.TotalWeight,
		MaxWeight:       h.maxWeight,
		Overweight:      s.TotalWeight.GreaterThan(h.maxWeight),
		SerialsRequired: SerialsRequired(s),
	}
	if in.SerialsRequired > 0 {
		records, err := h.lookup.SerialAssignmentsForShipment(ctx, s.ID)
		if err != nil {
			return in, LookupError{Query: "serial assignments for shipment", Cause: err}
		}
		for _, a := range records {
			if a.Assigned() {
				in.SerialsAssigned++
			}
		}
	}
	in.SerialsRemaining = in.SerialsRequired - in.SerialsAssigned
	in.CanFulfillAll = s.Status.Open() && s.Shippable && in.SerialsRemaining == 0
	return in, nil
}
