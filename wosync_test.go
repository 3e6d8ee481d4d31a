package outship_test

import (
	"context"
	"errors"
	"testing"

	"github.com/outship-io/outship"
	"github.com/outship-io/outship/internal/memstore"
	"github.com/outship-io/outship/internal/test"
)

func workOrderLine(lineID, key, workOrderID outship.ID, qty int) outship.Line {
	l := test.NewLine(lineID, 50, key, qty)
	l.WorkOrderID = workOrderID
	return l
}

func seedWorkOrderStore() *memstore.Store {
	store := memstore.New()
	store.AddShipment(test.NewShipment(1,
		workOrderLine(1, 100, 900, 2),
		workOrderLine(2, 101, 901, 2),
	))
	store.AddShipment(test.NewShipment(2,
		workOrderLine(1, 102, 900, 1),
	))
	store.AddShipment(test.NewShipment(3, test.NewLine(1, 50, 103, 1)))
	store.AddWorkOrder(outship.WorkOrder{ID: 900, Status: outship.WorkOrderInProcess, UnitsPouredWeight: outship.MustParseDecimal("120.5")})
	store.AddWorkOrder(outship.WorkOrder{ID: 901, Status: outship.WorkOrderReleased, UnitsPouredWeight: outship.MustParseDecimal("0")})
	return store
}

func TestWorkOrderSyncRun(t *testing.T) {
	ctx := context.Background()
	store := seedWorkOrderStore()
	sync := outship.NewWorkOrderSync(store, store, outship.WithSyncConcurrency(2))

	out, err := sync.Run(ctx, &outship.SyncInput{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Synced.Evaluated != 2 || out.Synced.Saved != 2 || out.Synced.Errors != 0 {
		t.Errorf("Run() synced got = %+v, want evaluated 2 saved 2", out.Synced)
	}
	if got := store.Counts().WorkOrderBatches; got != 1 {
		t.Errorf("Run() work order batches got = %d, want 1", got)
	}

	s1, _ := store.GetShipment(ctx, 1)
	if !s1.Lines[0].WorkOrderBegun || s1.Lines[1].WorkOrderBegun {
		t.Errorf("Run() begun flags got = %v, %v", s1.Lines[0].WorkOrderBegun, s1.Lines[1].WorkOrderBegun)
	}
	if s1.AllWorkOrdersBegun {
		t.Error("shipment 1 has a released work order and should not be all begun")
	}
	if !s1.Lines[0].WorkOrderWeight.Equal(outship.MustParseDecimal("120.5")) {
		t.Errorf("Run() work order weight got = %v", s1.Lines[0].WorkOrderWeight)
	}
	s2, _ := store.GetShipment(ctx, 2)
	if !s2.AllWorkOrdersBegun {
		t.Error("shipment 2 should be all begun")
	}

	store.ResetCounts()
	out, err = sync.Run(ctx, nil)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if out.Synced.Saved != 0 || store.Counts().ShipmentSaves != 0 {
		t.Errorf("second Run() saved got = %d, want 0", store.Counts().ShipmentSaves)
	}
}

func TestWorkOrderSyncScope(t *testing.T) {
	ctx := context.Background()
	store := seedWorkOrderStore()
	out, err := outship.NewWorkOrderSync(store, store).Run(ctx, &outship.SyncInput{ShipmentID: 2})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Synced.Evaluated != 1 {
		t.Errorf("Run() evaluated got = %d, want 1", out.Synced.Evaluated)
	}
	s1, _ := store.GetShipment(ctx, 1)
	if s1.Lines[0].WorkOrderBegun {
		t.Error("shipment 1 is out of scope and should be untouched")
	}
}

func TestWorkOrderSyncMissingWorkOrder(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	line := workOrderLine(1, 100, 404, 1)
	line.WorkOrderStatus = outship.WorkOrderBuilt
	line.WorkOrderBegun = true
	line.WorkOrderWeight = outship.MustParseDecimal("8")
	store.AddShipment(test.NewShipment(1, line))

	if _, err := outship.NewWorkOrderSync(store, store).Run(ctx, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	s, _ := store.GetShipment(ctx, 1)
	if s.Lines[0].WorkOrderStatus != outship.WorkOrderBuilt || !s.Lines[0].WorkOrderBegun {
		t.Errorf("missing work order changed status to %q", s.Lines[0].WorkOrderStatus)
	}
	if !s.Lines[0].WorkOrderWeight.IsZero() {
		t.Errorf("missing work order weight got = %v, want 0", s.Lines[0].WorkOrderWeight)
	}
}

func TestWorkOrderSyncIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	store := seedWorkOrderStore()
	store.Fail = func(op string, id any) error {
		if op == "PutShipment" && id == outship.ID(1) {
			return errors.New("conflict")
		}
		return nil
	}
	out, err := outship.NewWorkOrderSync(store, store).Run(ctx, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Synced.Errors != 1 || out.Synced.Saved != 1 {
		t.Errorf("Run() synced got = %+v, want errors 1 saved 1", out.Synced)
	}
	s2, _ := store.GetShipment(ctx, 2)
	if !s2.Lines[0].WorkOrderBegun {
		t.Error("shipment 2 should still be reconciled")
	}
}

func TestWorkOrderSyncLookupFailure(t *testing.T) {
	store := seedWorkOrderStore()
	store.Fail = func(op string, _ any) error {
		if op == "WorkOrders" {
			return errors.New("batch read failed")
		}
		return nil
	}
	out, err := outship.NewWorkOrderSync(store, store).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Synced.Errors != 1 || out.Synced.Evaluated != 0 {
		t.Errorf("Run() synced got = %+v, want one error and nothing evaluated", out.Synced)
	}
	if !errors.As(out.Synced.Failures[0].Err, new(outship.LookupError)) {
		t.Errorf("Run() failure got = %v, want LookupError", out.Synced.Failures[0].Err)
	}
	if store.Counts().ShipmentSaves != 0 {
		t.Error("no shipment should be saved after a lookup failure")
	}
}

func TestWorkOrderSyncLinksLateWorkOrders(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	order := test.NewSourceOrder(50, 5, 100, 101)
	order.Lines[0].WorkOrderID = 900
	store.AddSourceOrder(order)
	store.AddShipment(test.NewShipment(1, test.NewLine(1, 50, 100, 2), test.NewLine(2, 50, 101, 2)))
	store.AddWorkOrder(outship.WorkOrder{ID: 900, Status: outship.WorkOrderClosed})

	out, err := outship.NewWorkOrderSync(store, store).Run(ctx, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Linked.Saved != 1 {
		t.Errorf("Run() linked got = %+v, want one saved", out.Linked)
	}
	s, _ := store.GetShipment(ctx, 1)
	if s.Lines[0].WorkOrderID != 900 || !s.Lines[0].WorkOrderBegun {
		t.Errorf("line 1 got = %+v, want work order 900 begun", s.Lines[0])
	}
	if !s.Lines[1].WorkOrderID.IsZero() {
		t.Errorf("line 2 work order got = %v, want none", s.Lines[1].WorkOrderID)
	}
	if got := out.Total().Saved; got != 2 {
		t.Errorf("Total().Saved got = %d, want 2", got)
	}
}
