package mock

import (
	"context"
	"errors"
	"time"

	"github.com/outship-io/outship"
	"github.com/outship-io/outship/internal/clock"
)

var ErrNotImplemented = errors.New("not implemented")

type Client struct {
	GetShipmentFunc                  func(ctx context.Context, id outship.ID) (*outship.Shipment, error)
	PutShipmentFunc                  func(ctx context.Context, s *outship.Shipment) error
	DeleteShipmentFunc               func(ctx context.Context, id outship.ID) error
	GetSourceOrderFunc               func(ctx context.Context, id outship.ID) (*outship.SourceOrder, error)
	PutSourceOrderFunc               func(ctx context.Context, o *outship.SourceOrder) error
	GetLocationFunc                  func(ctx context.Context, id outship.ID) (*outship.Location, error)
	GetSerialAssignmentFunc          func(ctx context.Context, id outship.ID) (*outship.SerialAssignment, error)
	CreateSerialAssignmentFunc       func(ctx context.Context, a *outship.SerialAssignment) error
	PutSerialAssignmentFunc          func(ctx context.Context, a *outship.SerialAssignment) error
	DeleteSerialAssignmentFunc       func(ctx context.Context, id outship.ID) error
	LinesMissingWorkOrderFunc        func(ctx context.Context) ([]outship.UnlinkedLine, error)
	OpenWorkOrderLinesFunc           func(ctx context.Context, shipmentID outship.ID) ([]outship.WorkOrderLine, error)
	WorkOrdersFunc                   func(ctx context.Context, ids []outship.ID) (map[outship.ID]outship.WorkOrder, error)
	SerialAssignmentsForLineFunc     func(ctx context.Context, shipmentID, lineKey outship.ID) ([]outship.SerialAssignment, error)
	SerialAssignmentsForShipmentFunc func(ctx context.Context, shipmentID outship.ID) ([]outship.SerialAssignment, error)
	OrphanedSerialAssignmentsFunc    func(ctx context.Context) ([]outship.SerialAssignment, error)
	EditRolesFunc                    func(ctx context.Context) ([]outship.ID, error)
	OpenShipmentsFunc                func(ctx context.Context) ([]outship.ID, error)
	SubmitJobFunc                    func(ctx context.Context, job *outship.Job) error
	ReceiveJobFunc                   func(ctx context.Context, params *outship.ReceiveJobInput) (*outship.Job, error)
	CompleteJobFunc                  func(ctx context.Context, job *outship.Job) error
	GetJobFunc                       func(ctx context.Context, id string) (*outship.Job, error)
	ListJobsFunc                     func(ctx context.Context, size int) ([]*outship.Job, error)
}

func (m Client) GetShipment(ctx context.Context, id outship.ID) (*outship.Shipment, error) {
	if m.GetShipmentFunc != nil {
		return m.GetShipmentFunc(ctx, id)
	}
	return nil, ErrNotImplemented
}

func (m Client) PutShipment(ctx context.Context, s *outship.Shipment) error {
	if m.PutShipmentFunc != nil {
		return m.PutShipmentFunc(ctx, s)
	}
	return ErrNotImplemented
}

func (m Client) DeleteShipment(ctx context.Context, id outship.ID) error {
	if m.DeleteShipmentFunc != nil {
		return m.DeleteShipmentFunc(ctx, id)
	}
	return ErrNotImplemented
}

func (m Client) GetSourceOrder(ctx context.Context, id outship.ID) (*outship.SourceOrder, error) {
	if m.GetSourceOrderFunc != nil {
		return m.GetSourceOrderFunc(ctx, id)
	}
	return nil, ErrNotImplemented
}

func (m Client) PutSourceOrder(ctx context.Context, o *outship.SourceOrder) error {
	if m.PutSourceOrderFunc != nil {
		return m.PutSourceOrderFunc(ctx, o)
	}
	return ErrNotImplemented
}

func (m Client) GetLocation(ctx context.Context, id outship.ID) (*outship.Location, error) {
	if m.GetLocationFunc != nil {
		return m.GetLocationFunc(ctx, id)
	}
	return nil, ErrNotImplemented
}

func (m Client) GetSerialAssignment(ctx context.Context, id outship.ID) (*outship.SerialAssignment, error) {
	if m.GetSerialAssignmentFunc != nil {
		return m.GetSerialAssignmentFunc(ctx, id)
	}
	return nil, ErrNotImplemented
}

func (m Client) CreateSerialAssignment(ctx context.Context, a *outship.SerialAssignment) error {
	if m.CreateSerialAssignmentFunc != nil {
		return m.CreateSerialAssignmentFunc(ctx, a)
	}
	return ErrNotImplemented
}

func (m Client) PutSerialAssignment(ctx context.Context, a *outship.SerialAssignment) error {
	if m.PutSerialAssignmentFunc != nil {
		return m.PutSerialAssignmentFunc(ctx, a)
	}
	return ErrNotImplemented
}

func (m Client) DeleteSerialAssignment(ctx context.Context, id outship.ID) error {
	if m.DeleteSerialAssignmentFunc != nil {
		return m.DeleteSerialAssignmentFunc(ctx, id)
	}
	return ErrNotImplemented
}

func (m Client) LinesMissingWorkOrder(ctx context.Context) ([]outship.UnlinkedLine, error) {
	if m.LinesMissingWorkOrderFunc != nil {
		return m.LinesMissingWorkOrderFunc(ctx)
	}
	return nil, ErrNotImplemented
}

func (m Client) OpenWorkOrderLines(ctx context.Context, shipmentID outship.ID) ([]outship.WorkOrderLine, error) {
	if m.OpenWorkOrderLinesFunc != nil {
		return m.OpenWorkOrderLinesFunc(ctx, shipmentID)
	}
	return nil, ErrNotImplemented
}

func (m Client) WorkOrders(ctx context.Context, ids []outship.ID) (map[outship.ID]outship.WorkOrder, error) {
	if m.WorkOrdersFunc != nil {
		return m.WorkOrdersFunc(ctx, ids)
	}
	return nil, ErrNotImplemented
}

func (m Client) SerialAssignmentsForLine(ctx context.Context, shipmentID, lineKey outship.ID) ([]outship.SerialAssignment, error) {
	if m.SerialAssignmentsForLineFunc != nil {
		return m.SerialAssignmentsForLineFunc(ctx, shipmentID, lineKey)
	}
	return nil, ErrNotImplemented
}

func (m Client) SerialAssignmentsForShipment(ctx context.Context, shipmentID outship.ID) ([]outship.SerialAssignment, error) {
	if m.SerialAssignmentsForShipmentFunc != nil {
		return m.SerialAssignmentsForShipmentFunc(ctx, shipmentID)
	}
	return nil, ErrNotImplemented
}

func (m Client) OrphanedSerialAssignments(ctx context.Context) ([]outship.SerialAssignment, error) {
	if m.OrphanedSerialAssignmentsFunc != nil {
		return m.OrphanedSerialAssignmentsFunc(ctx)
	}
	return nil, ErrNotImplemented
}

func (m Client) EditRoles(ctx context.Context) ([]outship.ID, error) {
	if m.EditRolesFunc != nil {
		return m.EditRolesFunc(ctx)
	}
	return nil, ErrNotImplemented
}

func (m Client) OpenShipments(ctx context.Context) ([]outship.ID, error) {
	if m.OpenShipmentsFunc != nil {
		return m.OpenShipmentsFunc(ctx)
	}
	return nil, ErrNotImplemented
}

func (m Client) SubmitJob(ctx context.Context, job *outship.Job) error {
	if m.SubmitJobFunc != nil {
		return m.SubmitJobFunc(ctx, job)
	}
	return ErrNotImplemented
}

func (m Client) ReceiveJob(ctx context.Context, params *outship.ReceiveJobInput) (*outship.Job, error) {
	if m.ReceiveJobFunc != nil {
		return m.ReceiveJobFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m Client) CompleteJob(ctx context.Context, job *outship.Job) error {
	if m.CompleteJobFunc != nil {
		return m.CompleteJobFunc(ctx, job)
	}
	return ErrNotImplemented
}

func (m Client) GetJob(ctx context.Context, id string) (*outship.Job, error) {
	if m.GetJobFunc != nil {
		return m.GetJobFunc(ctx, id)
	}
	return nil, ErrNotImplemented
}

func (m Client) ListJobs(ctx context.Context, size int) ([]*outship.Job, error) {
	if m.ListJobsFunc != nil {
		return m.ListJobsFunc(ctx, size)
	}
	return nil, ErrNotImplemented
}

type Clock struct {
	T time.Time
}

func (m Clock) Now() time.Time {
	return m.T
}

func WithClock(clock clock.Clock) func(s *outship.ClientOptions) {
	return func(s *outship.ClientOptions) {
		if clock != nil {
			s.Clock = clock
		}
	}
}

var _ outship.Client = Client{}
