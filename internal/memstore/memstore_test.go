package memstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/outship-io/outship"
	"github.com/outship-io/outship/internal/memstore"
	"github.com/outship-io/outship/internal/mock"
	"github.com/outship-io/outship/internal/test"
)

func TestStorePutShipmentVersioning(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	store.AddShipment(test.NewShipment(1, test.NewLine(1, 50, 100, 3)))

	a, _ := store.GetShipment(ctx, 1)
	b, _ := store.GetShipment(ctx, 1)
	if err := store.PutShipment(ctx, a); err != nil {
		t.Fatalf("PutShipment() error = %v", err)
	}
	if a.Version != 1 {
		t.Errorf("PutShipment() version got = %d, want 1", a.Version)
	}
	if err := store.PutShipment(ctx, b); !errors.As(err, new(outship.ConditionalCheckFailedError)) {
		t.Errorf("PutShipment() stale error = %v, want ConditionalCheckFailedError", err)
	}
	if got := store.Counts(); got.ShipmentLoads != 2 || got.ShipmentSaves != 2 {
		t.Errorf("Counts() got = %+v, want 2 loads and 2 saves", got)
	}
	store.ResetCounts()
	if got := store.Counts(); got != (memstore.Counts{}) {
		t.Errorf("Counts() after reset got = %+v", got)
	}
}

func TestStoreFail(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	store.AddShipment(test.NewShipment(1))
	store.AddShipment(test.NewShipment(2))
	store.Fail = func(op string, id any) error {
		if op == "GetShipment" && id == outship.ID(2) {
			return test.ErrorTest
		}
		return nil
	}
	if _, err := store.GetShipment(ctx, 1); err != nil {
		t.Errorf("GetShipment(1) error = %v", err)
	}
	if _, err := store.GetShipment(ctx, 2); !errors.Is(err, test.ErrorTest) {
		t.Errorf("GetShipment(2) error = %v, want %v", err, test.ErrorTest)
	}
}

func TestStoreDeleteShipmentOrphansSerials(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	store.AddShipment(test.NewShipment(1))
	id := store.AddSerialAssignment(outship.SerialAssignment{LinkedShipmentID: 1, LineKey: 100})

	if err := store.DeleteShipment(ctx, 1); err != nil {
		t.Fatalf("DeleteShipment() error = %v", err)
	}
	orphans, err := store.OrphanedSerialAssignments(ctx)
	if err != nil {
		t.Fatalf("OrphanedSerialAssignments() error = %v", err)
	}
	if len(orphans) != 1 || orphans[0].ID != id {
		t.Errorf("OrphanedSerialAssignments() got = %+v, want [%v]", orphans, id)
	}
}

func TestStoreJobLease(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := &mock.Clock{T: now}
	store := memstore.New()
	store.Clock = clk

	if _, err := store.ReceiveJob(ctx, &outship.ReceiveJobInput{VisibilityTimeout: time.Minute}); !errors.As(err, new(outship.EmptyQueueError)) {
		t.Fatalf("ReceiveJob() on empty queue error = %v, want EmptyQueueError", err)
	}
	if err := store.SubmitJob(ctx, outship.NewJob("job-1", outship.ActionCheckShippable, 0, now)); err != nil {
		t.Fatalf("SubmitJob() error = %v", err)
	}
	if err := store.SubmitJob(ctx, outship.NewJob("job-1", outship.ActionCheckShippable, 0, now)); !errors.Is(err, outship.IDDuplicatedError{}) {
		t.Errorf("SubmitJob() duplicate error = %v, want IDDuplicatedError", err)
	}
	first, err := store.ReceiveJob(ctx, &outship.ReceiveJobInput{VisibilityTimeout: time.Minute})
	if err != nil {
		t.Fatalf("ReceiveJob() error = %v", err)
	}
	if _, err := store.ReceiveJob(ctx, &outship.ReceiveJobInput{VisibilityTimeout: time.Minute}); !errors.As(err, new(outship.EmptyQueueError)) {
		t.Errorf("ReceiveJob() within lease error = %v, want EmptyQueueError", err)
	}

	clk.T = now.Add(2 * time.Minute)
	second, err := store.ReceiveJob(ctx, &outship.ReceiveJobInput{VisibilityTimeout: time.Minute})
	if err != nil {
		t.Fatalf("ReceiveJob() after lease error = %v", err)
	}
	if second.ReceiveCount != 2 {
		t.Errorf("ReceiveCount got = %d, want 2", second.ReceiveCount)
	}

	if err := first.MarkAsFinished(clk.T, &outship.Summary{}, nil); err != nil {
		t.Fatalf("MarkAsFinished() error = %v", err)
	}
	if err := store.CompleteJob(ctx, first); !errors.As(err, new(outship.ConditionalCheckFailedError)) {
		t.Errorf("CompleteJob() stale error = %v, want ConditionalCheckFailedError", err)
	}
	if err := second.MarkAsFinished(clk.T, &outship.Summary{}, nil); err != nil {
		t.Fatalf("MarkAsFinished() error = %v", err)
	}
	if err := store.CompleteJob(ctx, second); err != nil {
		t.Errorf("CompleteJob() error = %v", err)
	}
}
