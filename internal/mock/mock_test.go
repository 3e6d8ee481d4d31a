package mock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/outship-io/outship"
	"github.com/outship-io/outship/internal/mock"
)

func TestMockClient(t *testing.T) {
	ctx := context.Background()
	client := mock.Client{}
	tests := []struct {
		name   string
		method func() error
	}{
		{
			name: "GetShipment",
			method: func() error {
				_, err := client.GetShipment(ctx, 0)
				return err
			},
		},
		{
			name: "PutShipment",
			method: func() error {
				return client.PutShipment(ctx, nil)
			},
		},
		{
			name: "DeleteShipment",
			method: func() error {
				return client.DeleteShipment(ctx, 0)
			},
		},
		{
			name: "GetSourceOrder",
			method: func() error {
				_, err := client.GetSourceOrder(ctx, 0)
				return err
			},
		},
		{
			name: "PutSourceOrder",
			method: func() error {
				return client.PutSourceOrder(ctx, nil)
			},
		},
		{
			name: "GetLocation",
			method: func() error {
				_, err := client.GetLocation(ctx, 0)
				return err
			},
		},
		{
			name: "GetSerialAssignment",
			method: func() error {
				_, err := client.GetSerialAssignment(ctx, 0)
				return err
			},
		},
		{
			name: "CreateSerialAssignment",
			method: func() error {
				return client.CreateSerialAssignment(ctx, nil)
			},
		},
		{
			name: "PutSerialAssignment",
			method: func() error {
				return client.PutSerialAssignment(ctx, nil)
			},
		},
		{
			name: "DeleteSerialAssignment",
			method: func() error {
				return client.DeleteSerialAssignment(ctx, 0)
			},
		},
		{
			name: "LinesMissingWorkOrder",
			method: func() error {
				_, err := client.LinesMissingWorkOrder(ctx)
				return err
			},
		},
		{
			name: "OpenWorkOrderLines",
			method: func() error {
				_, err := client.OpenWorkOrderLines(ctx, 0)
				return err
			},
		},
		{
			name: "WorkOrders",
			method: func() error {
				_, err := client.WorkOrders(ctx, nil)
				return err
			},
		},
		{
			name: "SerialAssignmentsForLine",
			method: func() error {
				_, err := client.SerialAssignmentsForLine(ctx, 0, 0)
				return err
			},
		},
		{
			name: "SerialAssignmentsForShipment",
			method: func() error {
				_, err := client.SerialAssignmentsForShipment(ctx, 0)
				return err
			},
		},
		{
			name: "OrphanedSerialAssignments",
			method: func() error {
				_, err := client.OrphanedSerialAssignments(ctx)
				return err
			},
		},
		{
			name: "EditRoles",
			method: func() error {
				_, err := client.EditRoles(ctx)
				return err
			},
		},
		{
			name: "OpenShipments",
			method: func() error {
				_, err := client.OpenShipments(ctx)
				return err
			},
		},
		{
			name: "SubmitJob",
			method: func() error {
				return client.SubmitJob(ctx, nil)
			},
		},
		{
			name: "ReceiveJob",
			method: func() error {
				_, err := client.ReceiveJob(ctx, nil)
				return err
			},
		},
		{
			name: "CompleteJob",
			method: func() error {
				return client.CompleteJob(ctx, nil)
			},
		},
		{
			name: "GetJob",
			method: func() error {
				_, err := client.GetJob(ctx, "")
				return err
			},
		},
		{
			name: "ListJobs",
			method: func() error {
				_, err := client.ListJobs(ctx, 0)
				return err
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.method(); !errors.Is(err, mock.ErrNotImplemented) {
				t.Errorf("%s() error = %v, want %v", tt.name, err, mock.ErrNotImplemented)
			}
		})
	}
}

func TestMockClientDelegates(t *testing.T) {
	want := &outship.Job{ID: "job-1"}
	client := mock.Client{
		GetJobFunc: func(_ context.Context, id string) (*outship.Job, error) {
			return &outship.Job{ID: id}, nil
		},
	}
	got, err := client.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got.ID != want.ID {
		t.Errorf("GetJob() got = %v, want %v", got.ID, want.ID)
	}
}

func TestMockClock(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	opts := &outship.ClientOptions{}
	mock.WithClock(mock.Clock{T: now})(opts)
	if got := opts.Clock.Now(); !got.Equal(now) {
		t.Errorf("Now() got = %v, want %v", got, now)
	}
	mock.WithClock(nil)(opts)
	if opts.Clock == nil {
		t.Error("WithClock(nil) cleared the clock")
	}
}
