package outship_test

import (
	"context"
	"errors"
	"testing"

	"github.com/outship-io/outship"
	"github.com/outship-io/outship/internal/memstore"
	"github.com/outship-io/outship/internal/test"
)

func TestReconcilerApplyDeltas(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	store.AddSourceOrder(test.NewSourceOrder(50, 10, 100, 101))
	store.AddSourceOrder(test.NewSourceOrder(60, 10, 200))

	created := test.NewShipment(1,
		test.NewLine(1, 50, 100, 5),
		test.NewLine(2, 50, 101, 3),
		test.NewLine(3, 60, 200, 4),
	)
	deltas := outship.ComputeDeltas(nil, outship.Snapshot(created), outship.OperationCreate)
	r := outship.NewReconciler(store)
	out, err := r.ApplyDeltas(ctx, &outship.ApplyDeltasInput{Deltas: deltas, Operation: outship.OperationCreate})
	if err != nil {
		t.Fatalf("ApplyDeltas() error = %v", err)
	}
	if len(out.Results) != 2 {
		t.Fatalf("ApplyDeltas() results got = %d, want 2", len(out.Results))
	}
	if got := store.Counts(); got.OrderLoads != 2 || got.OrderSaves != 2 {
		t.Errorf("ApplyDeltas() loads/saves got = %d/%d, want 2/2", got.OrderLoads, got.OrderSaves)
	}
	order, _ := store.GetSourceOrder(ctx, 50)
	if got := order.Line(100).QuantityOnShipment; got != 5 {
		t.Errorf("QuantityOnShipment got = %d, want 5", got)
	}
	if !order.Line(101).HasRef(1) {
		t.Error("line 101 should reference shipment 1")
	}

	// Re-applying the same refs must not duplicate them.
	edited := created.Clone()
	edited.Lines[0].QuantityToFulfill = 2
	deltas = outship.ComputeDeltas(outship.Snapshot(created), outship.Snapshot(edited), outship.OperationEdit)
	if _, err := r.ApplyDeltas(ctx, &outship.ApplyDeltasInput{Deltas: deltas, Operation: outship.OperationEdit}); err != nil {
		t.Fatalf("ApplyDeltas() error = %v", err)
	}
	order, _ = store.GetSourceOrder(ctx, 50)
	line := order.Line(100)
	if line.QuantityOnShipment != 2 {
		t.Errorf("QuantityOnShipment after edit got = %d, want 2", line.QuantityOnShipment)
	}
	if len(line.ShipmentRefs) != 1 {
		t.Errorf("ShipmentRefs after edit got = %v, want one entry", line.ShipmentRefs)
	}

	deltas = outship.ComputeDeltas(outship.Snapshot(edited), nil, outship.OperationDelete)
	if _, err := r.ApplyDeltas(ctx, &outship.ApplyDeltasInput{Deltas: deltas, Operation: outship.OperationDelete}); err != nil {
		t.Fatalf("ApplyDeltas() error = %v", err)
	}
	order, _ = store.GetSourceOrder(ctx, 50)
	for _, l := range order.Lines {
		if l.QuantityOnShipment != 0 || l.HasRef(1) {
			t.Errorf("line %v after delete got qty %d refs %v", l.Key, l.QuantityOnShipment, l.ShipmentRefs)
		}
	}
}

func TestReconcilerClampsAtZero(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	order := test.NewSourceOrder(50, 10, 100)
	order.Lines[0].QuantityOnShipment = 2
	store.AddSourceOrder(order)

	r := outship.NewReconciler(store)
	deltas := []outship.LineDelta{{Key: 100, SourceOrderID: 50, ShipmentID: 1, OldQuantity: 5, NewQuantity: 0, Delta: -5}}
	if _, err := r.ApplyDeltas(ctx, &outship.ApplyDeltasInput{Deltas: deltas, Operation: outship.OperationEdit}); err != nil {
		t.Fatalf("ApplyDeltas() error = %v", err)
	}
	got, _ := store.GetSourceOrder(ctx, 50)
	if got.Lines[0].QuantityOnShipment != 0 {
		t.Errorf("QuantityOnShipment got = %d, want 0", got.Lines[0].QuantityOnShipment)
	}
}

func TestReconcilerIsolatesFailingSourceOrder(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	store.AddSourceOrder(test.NewSourceOrder(50, 10, 100))
	store.AddSourceOrder(test.NewSourceOrder(60, 10, 200))
	errSave := errors.New("save rejected")
	store.Fail = func(op string, id any) error {
		if op == "PutSourceOrder" && id == outship.ID(50) {
			return errSave
		}
		return nil
	}

	deltas := []outship.LineDelta{
		{Key: 100, SourceOrderID: 50, ShipmentID: 1, NewQuantity: 1, Delta: 1},
		{Key: 999, SourceOrderID: 0, ShipmentID: 1, NewQuantity: 1, Delta: 1},
		{Key: 200, SourceOrderID: 60, ShipmentID: 1, NewQuantity: 2, Delta: 2},
	}
	out, err := outship.NewReconciler(store).ApplyDeltas(ctx, &outship.ApplyDeltasInput{Deltas: deltas, Operation: outship.OperationCreate})
	if err != nil {
		t.Fatalf("ApplyDeltas() error = %v", err)
	}
	if out.Summary.Evaluated != 3 || out.Summary.Errors != 2 || out.Summary.Saved != 1 {
		t.Errorf("ApplyDeltas() summary got = %+v", out.Summary)
	}
	if !errors.Is(out.Results[0].Err, errSave) {
		t.Errorf("Results[0].Err got = %v, want %v", out.Results[0].Err, errSave)
	}
	if !errors.As(out.Results[1].Err, new(outship.IDNotProvidedError)) {
		t.Errorf("Results[1].Err got = %v, want IDNotProvidedError", out.Results[1].Err)
	}
	order, _ := store.GetSourceOrder(ctx, 60)
	if order.Lines[0].QuantityOnShipment != 2 {
		t.Errorf("source order 60 QuantityOnShipment got = %d, want 2", order.Lines[0].QuantityOnShipment)
	}
}

func TestReconcilerSkipsUnchangedSourceOrder(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	store.AddSourceOrder(test.NewSourceOrder(50, 10, 100))
	deltas := []outship.LineDelta{{Key: 404, SourceOrderID: 50, ShipmentID: 1, NewQuantity: 3, Delta: 3}}
	out, err := outship.NewReconciler(store).ApplyDeltas(ctx, &outship.ApplyDeltasInput{Deltas: deltas})
	if err != nil {
		t.Fatalf("ApplyDeltas() error = %v", err)
	}
	if out.Results[0].Saved || store.Counts().OrderSaves != 0 {
		t.Errorf("ApplyDeltas() saved an unchanged source order: %+v", out.Results[0])
	}
}
