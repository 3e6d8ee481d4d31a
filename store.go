package outship

import "context"

// RecordStore loads, saves and deletes records.
type RecordStore interface {
	GetShipment(ctx context.Context, id ID) (*Shipment, error)
	// PutShipment saves the shipment. The save is rejected with a
	// ConditionalCheckFailedError when the stored version moved on.
	PutShipment(ctx context.Context, s *Shipment) error
	// DeleteShipment deletes the shipment and unlinks its serial assignments.
	DeleteShipment(ctx context.Context, id ID) error
	GetSourceOrder(ctx context.Context, id ID) (*SourceOrder, error)
	PutSourceOrder(ctx context.Context, o *SourceOrder) error
	GetLocation(ctx context.Context, id ID) (*Location, error)
	GetSerialAssignment(ctx context.Context, id ID) (*SerialAssignment, error)
	// CreateSerialAssignment stores a new record and sets its ID.
	CreateSerialAssignment(ctx context.Context, a *SerialAssignment) error
	PutSerialAssignment(ctx context.Context, a *SerialAssignment) error
	DeleteSerialAssignment(ctx context.Context, id ID) error
}

// Lookup answers the read queries the engines depend on. Every method returns
// the complete result set.
type Lookup interface {
	// LinesMissingWorkOrder returns open shipment lines without a work order
	// whose source order line has one.
	LinesMissingWorkOrder(ctx context.Context) ([]UnlinkedLine, error)
	// OpenWorkOrderLines returns open shipment lines with remaining quantity
	// and a work order. A zero shipmentID means all shipments.
	OpenWorkOrderLines(ctx context.Context, shipmentID ID) ([]WorkOrderLine, error)
	// WorkOrders fetches the given work orders in one batch. Unknown ids are
	// absent from the result.
	WorkOrders(ctx context.Context, ids []ID) (map[ID]WorkOrder, error)
	// SerialAssignmentsForLine returns the records of one shipment line.
	SerialAssignmentsForLine(ctx context.Context, shipmentID, lineKey ID) ([]SerialAssignment, error)
	SerialAssignmentsForShipment(ctx context.Context, shipmentID ID) ([]SerialAssignment, error)
	OrphanedSerialAssignments(ctx context.Context) ([]SerialAssignment, error)
	EditRoles(ctx context.Context) ([]ID, error)
	OpenShipments(ctx context.Context) ([]ID, error)
}

type UnlinkedLine struct {
	ShipmentID  ID `json:"shipment_id"`
	LineID      ID `json:"line_id"`
	WorkOrderID ID `json:"work_order_id"`
}

type WorkOrderLine struct {
	ShipmentID  ID `json:"shipment_id"`
	LineID      ID `json:"line_id"`
	WorkOrderID ID `json:"work_order_id"`
}
