package cmd_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/outship-io/outship"
	"github.com/outship-io/outship/internal/cmd"
	"github.com/outship-io/outship/internal/memstore"
	"github.com/spf13/cobra"
)

func TestCommandFactoryCreateSubmitCommand(t *testing.T) {
	tests := []struct {
		name    string
		flgs    *cmd.Flags
		want    outship.Action
		wantErr error
	}{
		{
			name: "should submit a batch job without a shipment",
			flgs: &cmd.Flags{Action: "wosync"},
			want: outship.ActionSyncWorkOrders,
		},
		{
			name: "should submit a fulfillment job for a shipment",
			flgs: &cmd.Flags{Action: "mr", ID: "1"},
			want: outship.ActionRunFulfillment,
		},
		{
			name:    "should reject an unknown action",
			flgs:    &cmd.Flags{Action: "foo"},
			wantErr: outship.InvalidActionError{Action: "foo"},
		},
		{
			name:    "should reject a fulfillment job without a shipment",
			flgs:    &cmd.Flags{Action: "mr"},
			wantErr: outship.IDNotProvidedError{},
		},
		{
			name:    "should reject a malformed shipment id",
			flgs:    &cmd.Flags{Action: "mr", ID: "abc"},
			wantErr: outship.InvalidIDError{Value: "abc"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memstore.New()
			var out bytes.Buffer
			err := newFactory(t, store, &out).CreateSubmitCommand(tt.flgs).RunE(&cobra.Command{}, []string{})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("RunE() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("RunE() error = %v", err)
			}
			var job outship.Job
			if err := json.Unmarshal(out.Bytes(), &job); err != nil {
				t.Fatalf("RunE() output %q is not a job: %v", out.String(), err)
			}
			if job.Action != tt.want || job.Status != outship.JobStatusQueued {
				t.Errorf("RunE() job got = %+v, want a queued %s job", job, tt.want)
			}
			if _, err := store.GetJob(context.Background(), job.ID); err != nil {
				t.Errorf("GetJob(%q) error = %v", job.ID, err)
			}
		})
	}
}

func TestCommandFactoryCreateJobCommands(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	first := outship.NewJob("job-1", outship.ActionSyncWorkOrders, 0, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	second := outship.NewJob("job-2", outship.ActionCheckShippable, 3, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	for _, j := range []*outship.Job{first, second} {
		if err := store.SubmitJob(ctx, j); err != nil {
			t.Fatalf("SubmitJob() error = %v", err)
		}
	}

	var out bytes.Buffer
	f := newFactory(t, store, &out)
	if err := f.CreateJobCommand(&cmd.Flags{JobID: "job-2"}).RunE(&cobra.Command{}, []string{}); err != nil {
		t.Fatalf("job RunE() error = %v", err)
	}
	var got outship.Job
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("job output %q: %v", out.String(), err)
	}
	if got.ID != "job-2" || got.DocumentID != 3 {
		t.Errorf("job RunE() got = %+v, want job-2 for shipment 3", got)
	}

	err := f.CreateJobCommand(&cmd.Flags{JobID: "missing"}).RunE(&cobra.Command{}, []string{})
	if !errors.Is(err, outship.IDNotFoundError{}) {
		t.Errorf("job RunE() error = %v, want IDNotFoundError", err)
	}
	err = f.CreateJobCommand(&cmd.Flags{}).RunE(&cobra.Command{}, []string{})
	if !errors.Is(err, outship.IDNotProvidedError{}) {
		t.Errorf("job RunE() error = %v, want IDNotProvidedError", err)
	}

	out.Reset()
	if err := f.CreateJobsCommand(&cmd.Flags{Size: 10}).RunE(&cobra.Command{}, []string{}); err != nil {
		t.Fatalf("jobs RunE() error = %v", err)
	}
	var list cmd.JobsResult
	if err := json.Unmarshal(out.Bytes(), &list); err != nil {
		t.Fatalf("jobs output %q: %v", out.String(), err)
	}
	if len(list.Jobs) != 2 || list.Jobs[0].ID != "job-2" || list.Jobs[1].ID != "job-1" {
		t.Errorf("jobs RunE() got = %+v, want [job-2 job-1]", list.Jobs)
	}
}

func TestCommandFactoryCreateFulfillCommand(t *testing.T) {
	tests := []struct {
		name       string
		flgs       *cmd.Flags
		wantStatus outship.Status
		wantErr    error
	}{
		{
			name:       "should fulfill a committed shipment",
			flgs:       &cmd.Flags{ID: "1"},
			wantStatus: outship.StatusFulfilled,
		},
		{
			name:    "should require a shipment id",
			flgs:    &cmd.Flags{},
			wantErr: outship.IDNotProvidedError{},
		},
		{
			name:    "should report a missing shipment",
			flgs:    &cmd.Flags{ID: "9"},
			wantErr: outship.NotFoundError{RecordType: "shipment", ID: 9},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededStore()
			err := newFactory(t, store, io.Discard).CreateFulfillCommand(tt.flgs).RunE(&cobra.Command{}, []string{})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("RunE() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("RunE() error = %v", err)
			}
			s, _ := store.GetShipment(context.Background(), 1)
			if s.Status != tt.wantStatus {
				t.Errorf("RunE() status got = %v, want %v", s.Status, tt.wantStatus)
			}
		})
	}
}

func TestCommandFactoryCreateInspectCommand(t *testing.T) {
	var out bytes.Buffer
	err := newFactory(t, seededStore(), &out).CreateInspectCommand(&cmd.Flags{ID: "1"}).RunE(&cobra.Command{}, []string{})
	if err != nil {
		t.Fatalf("RunE() error = %v", err)
	}
	for _, want := range []string{`"inspection"`, `"serials_required": 0`, `"overweight": false`} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("RunE() output = %s, want to contain %s", out.String(), want)
		}
	}
}

func TestCommandFactoryCreateDeleteShipmentCommand(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	order, _ := store.GetSourceOrder(ctx, 50)
	order.Lines[0].QuantityOnShipment = 3
	order.Lines[1].QuantityOnShipment = 2
	store.AddSourceOrder(order)
	store.AddSerialAssignment(outship.SerialAssignment{LinkedShipmentID: 1, LineKey: 100})

	var out bytes.Buffer
	if err := newFactory(t, store, &out).CreateDeleteShipmentCommand(&cmd.Flags{ID: "1"}).RunE(&cobra.Command{}, []string{}); err != nil {
		t.Fatalf("RunE() error = %v", err)
	}
	if _, err := store.GetShipment(ctx, 1); !errors.As(err, new(outship.NotFoundError)) {
		t.Errorf("GetShipment() after delete error = %v, want NotFoundError", err)
	}
	order, _ = store.GetSourceOrder(ctx, 50)
	for _, l := range order.Lines {
		if l.QuantityOnShipment != 0 {
			t.Errorf("line %v QuantityOnShipment got = %d, want 0", l.Key, l.QuantityOnShipment)
		}
	}
	if got := len(store.SerialAssignments()); got != 0 {
		t.Errorf("serial assignments after delete got = %d, want 0", got)
	}
	var result cmd.DeleteShipmentResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("output %q: %v", out.String(), err)
	}
	if result.SerialsDeleted != 1 {
		t.Errorf("SerialsDeleted got = %d, want 1", result.SerialsDeleted)
	}
}

func TestCommandFactoryCreateDeleteShipmentCommandChecksEditRole(t *testing.T) {
	newStore := func() *memstore.Store {
		store := seededStore()
		s, _ := store.GetShipment(context.Background(), 1)
		for i := range s.Lines {
			s.Lines[i].QuantityFulfilled = s.Lines[i].QuantityToFulfill
		}
		outship.Recalculate(s)
		store.AddShipment(s)
		store.AddEditRole(3)
		return store
	}
	tests := []struct {
		name    string
		roleID  string
		wantErr bool
	}{
		{name: "should allow a role on the allow-list", roleID: "3"},
		{name: "should reject other roles", roleID: "4", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flgs := &cmd.Flags{ID: "1", RoleID: tt.roleID}
			err := newFactory(t, newStore(), io.Discard).CreateDeleteShipmentCommand(flgs).RunE(&cobra.Command{}, []string{})
			if tt.wantErr {
				if !errors.As(err, new(outship.EditNotAllowedError)) {
					t.Errorf("RunE() error = %v, want EditNotAllowedError", err)
				}
				return
			}
			if err != nil {
				t.Errorf("RunE() error = %v", err)
			}
		})
	}
}

func TestCommandFactoryCreateSerialCommands(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	slot := store.AddSerialAssignment(outship.SerialAssignment{LinkedShipmentID: 1, LineKey: 100})
	f := newFactory(t, store, io.Discard)

	flgs := &cmd.Flags{SlotID: slot.String(), Serial: "SN-1"}
	if err := f.CreateAssignSerialCommand(flgs).RunE(&cobra.Command{}, []string{}); err != nil {
		t.Fatalf("assign-serial RunE() error = %v", err)
	}
	a, _ := store.GetSerialAssignment(ctx, slot)
	if a.SerialNumber != "SN-1" {
		t.Errorf("SerialNumber got = %q, want SN-1", a.SerialNumber)
	}
	if err := f.CreateUnassignSerialCommand(flgs).RunE(&cobra.Command{}, []string{}); err != nil {
		t.Fatalf("unassign-serial RunE() error = %v", err)
	}
	a, _ = store.GetSerialAssignment(ctx, slot)
	if a.Assigned() {
		t.Errorf("SerialNumber got = %q, want empty", a.SerialNumber)
	}
	err := f.CreateAssignSerialCommand(&cmd.Flags{Serial: "SN-2"}).RunE(&cobra.Command{}, []string{})
	if !errors.Is(err, outship.IDNotProvidedError{}) {
		t.Errorf("assign-serial RunE() error = %v, want IDNotProvidedError", err)
	}
}

func TestCommandFactoryCreateReclaimOrphansCommand(t *testing.T) {
	store := seededStore()
	store.AddSerialAssignment(outship.SerialAssignment{LinkedShipmentID: 1, LineKey: 100})
	store.AddSerialAssignment(outship.SerialAssignment{LineKey: 100})
	store.AddSerialAssignment(outship.SerialAssignment{LineKey: 101})

	var out bytes.Buffer
	if err := newFactory(t, store, &out).CreateReclaimOrphansCommand(&cmd.Flags{}).RunE(&cobra.Command{}, []string{}); err != nil {
		t.Fatalf("RunE() error = %v", err)
	}
	var summary outship.Summary
	if err := json.Unmarshal(out.Bytes(), &summary); err != nil {
		t.Fatalf("output %q: %v", out.String(), err)
	}
	if summary.Deleted != 2 {
		t.Errorf("RunE() deleted got = %d, want 2", summary.Deleted)
	}
	if got := len(store.SerialAssignments()); got != 1 {
		t.Errorf("serial assignments got = %d, want 1", got)
	}
}

func TestCommandFactoryCreateBatchCommands(t *testing.T) {
	tests := []struct {
		name   string
		create func(f cmd.CommandFactory, flgs *cmd.Flags) *cobra.Command
		flgs   *cmd.Flags
	}{
		{
			name:   "sync-work-orders over every open shipment",
			create: cmd.CommandFactory.CreateSyncWorkOrdersCommand,
			flgs:   &cmd.Flags{},
		},
		{
			name:   "sync-work-orders for one shipment",
			create: cmd.CommandFactory.CreateSyncWorkOrdersCommand,
			flgs:   &cmd.Flags{ID: "1"},
		},
		{
			name:   "check-shippable over every open shipment",
			create: cmd.CommandFactory.CreateCheckShippableCommand,
			flgs:   &cmd.Flags{},
		},
		{
			name:   "check-shippable for one shipment",
			create: cmd.CommandFactory.CreateCheckShippableCommand,
			flgs:   &cmd.Flags{ID: "1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			f := newFactory(t, seededStore(), &out)
			if err := tt.create(f, tt.flgs).RunE(&cobra.Command{}, []string{}); err != nil {
				t.Fatalf("RunE() error = %v", err)
			}
			if !json.Valid(out.Bytes()) {
				t.Errorf("RunE() output = %q, want JSON", out.String())
			}
			if strings.Contains(out.String(), `"failures"`) {
				t.Errorf("RunE() output = %s, want no failures", out.String())
			}
		})
	}
	err := newFactory(t, seededStore(), io.Discard).CreateCheckShippableCommand(&cmd.Flags{ID: "x"}).RunE(&cobra.Command{}, []string{})
	if !errors.As(err, new(outship.InvalidIDError)) {
		t.Errorf("RunE() error = %v, want InvalidIDError", err)
	}
}
