// Package memstore is an in-memory record store, lookup and job queue. It
// backs local runs and the engine tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/outship-io/outship"
	"github.com/outship-io/outship/internal/clock"
)

// Counts tracks the calls that reached the store.
type Counts struct {
	ShipmentLoads    int
	ShipmentSaves    int
	OrderLoads       int
	OrderSaves       int
	SerialCreates    int
	SerialSaves      int
	SerialDeletes    int
	WorkOrderBatches int
}

// Store holds every record in maps guarded by one mutex. It is safe for
// concurrent use.
type Store struct {
	mu sync.Mutex

	shipments  map[outship.ID]*outship.Shipment
	orders     map[outship.ID]*outship.SourceOrder
	locations  map[outship.ID]outship.Location
	workOrders map[outship.ID]outship.WorkOrder
	serials    map[outship.ID]outship.SerialAssignment
	roles      []outship.ID
	jobs       map[string]*outship.Job
	nextSerial outship.ID
	counts     Counts

	// Clock drives job leases. The zero value uses the real clock.
	Clock clock.Clock
	// Fail, when set, is consulted before every operation. A non-nil result
	// is returned in place of the operation's outcome.
	Fail func(op string, id any) error
}

func New() *Store {
	return &Store{
		shipments:  map[outship.ID]*outship.Shipment{},
		orders:     map[outship.ID]*outship.SourceOrder{},
		locations:  map[outship.ID]outship.Location{},
		workOrders: map[outship.ID]outship.WorkOrder{},
		serials:    map[outship.ID]outship.SerialAssignment{},
		jobs:       map[string]*outship.Job{},
	}
}

func (m *Store) fail(op string, id any) error {
	if m.Fail == nil {
		return nil
	}
	return m.Fail(op, id)
}

func (m *Store) now() clock.Clock {
	if m.Clock == nil {
		return clock.RealClock{}
	}
	return m.Clock
}

// Counts returns a snapshot of the call counters.
func (m *Store) Counts() Counts {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts
}

func (m *Store) ResetCounts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts = Counts{}
}

// Seed helpers store records without touching counters or versions.

func (m *Store) AddShipment(s *outship.Shipment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shipments[s.ID] = s.Clone()
}

func (m *Store) AddSourceOrder(o *outship.SourceOrder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o.Clone()
}

func (m *Store) AddLocation(l outship.Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[l.ID] = l
}

func (m *Store) AddWorkOrder(wo outship.WorkOrder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workOrders[wo.ID] = wo
}

func (m *Store) AddEditRole(id outship.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles = append(m.roles, id)
}

func (m *Store) AddSerialAssignment(a outship.SerialAssignment) outship.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID.IsZero() {
		m.nextSerial++
		a.ID = m.nextSerial
	} else if a.ID > m.nextSerial {
		m.nextSerial = a.ID
	}
	m.serials[a.ID] = a
	return a.ID
}

// SerialAssignments returns every stored serial record ordered by id.
func (m *Store) SerialAssignments() []outship.SerialAssignment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterSerials(func(outship.SerialAssignment) bool { return true })
}

func (m *Store) GetShipment(_ context.Context, id outship.ID) (*outship.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts.ShipmentLoads++
	if err := m.fail("GetShipment", id); err != nil {
		return nil, err
	}
	s, ok := m.shipments[id]
	if !ok {
		return nil, outship.NotFoundError{RecordType: "shipment", ID: id}
	}
	return s.Clone(), nil
}

func (m *Store) PutShipment(_ context.Context, s *outship.Shipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts.ShipmentSaves++
	if s == nil || s.ID.IsZero() {
		return outship.IDNotProvidedError{}
	}
	if err := m.fail("PutShipment", s.ID); err != nil {
		return err
	}
	if cur, ok := m.shipments[s.ID]; ok && cur.Version != s.Version {
		return outship.ConditionalCheckFailedError{Cause: fmt.Errorf("shipment %v version %d, stored %d", s.ID, s.Version, cur.Version)}
	}
	s.Version++
	m.shipments[s.ID] = s.Clone()
	return nil
}

func (m *Store) DeleteShipment(_ context.Context, id outship.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id.IsZero() {
		return outship.IDNotProvidedError{}
	}
	if err := m.fail("DeleteShipment", id); err != nil {
		return err
	}
	delete(m.shipments, id)
	for k, a := range m.serials {
		if a.LinkedShipmentID == id {
			a.LinkedShipmentID = 0
			m.serials[k] = a
		}
	}
	return nil
}

func (m *Store) GetSourceOrder(_ context.Context, id outship.ID) (*outship.SourceOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts.OrderLoads++
	if err := m.fail("GetSourceOrder", id); err != nil {
		return nil, err
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, outship.NotFoundError{RecordType: "source_order", ID: id}
	}
	return o.Clone(), nil
}

func (m *Store) PutSourceOrder(_ context.Context, o *outship.SourceOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts.OrderSaves++
	if o == nil || o.ID.IsZero() {
		return outship.IDNotProvidedError{}
	}
	if err := m.fail("PutSourceOrder", o.ID); err != nil {
		return err
	}
	if cur, ok := m.orders[o.ID]; ok && cur.Version != o.Version {
		return outship.ConditionalCheckFailedError{Cause: fmt.Errorf("source order %v version %d, stored %d", o.ID, o.Version, cur.Version)}
	}
	o.Version++
	m.orders[o.ID] = o.Clone()
	return nil
}

func (m *Store) GetLocation(_ context.Context, id outship.ID) (*outship.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetLocation", id); err != nil {
		return nil, err
	}
	l, ok := m.locations[id]
	if !ok {
		return nil, outship.NotFoundError{RecordType: "location", ID: id}
	}
	return &l, nil
}

func (m *Store) GetSerialAssignment(_ context.Context, id outship.ID) (*outship.SerialAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetSerialAssignment", id); err != nil {
		return nil, err
	}
	a, ok := m.serials[id]
	if !ok {
		return nil, outship.NotFoundError{RecordType: "serial_assignment", ID: id}
	}
	return &a, nil
}

func (m *Store) CreateSerialAssignment(_ context.Context, a *outship.SerialAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts.SerialCreates++
	if err := m.fail("CreateSerialAssignment", a.LineKey); err != nil {
		return err
	}
	m.nextSerial++
	a.ID = m.nextSerial
	m.serials[a.ID] = *a
	return nil
}

func (m *Store) PutSerialAssignment(_ context.Context, a *outship.SerialAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts.SerialSaves++
	if a == nil || a.ID.IsZero() {
		return outship.IDNotProvidedError{}
	}
	if err := m.fail("PutSerialAssignment", a.ID); err != nil {
		return err
	}
	m.serials[a.ID] = *a
	return nil
}

func (m *Store) DeleteSerialAssignment(_ context.Context, id outship.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts.SerialDeletes++
	if id.IsZero() {
		return outship.IDNotProvidedError{}
	}
	if err := m.fail("DeleteSerialAssignment", id); err != nil {
		return err
	}
	delete(m.serials, id)
	return nil
}

func (m *Store) openShipments() []*outship.Shipment {
	var open []*outship.Shipment
	for _, s := range m.shipments {
		if s.Status.Open() {
			open = append(open, s)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].ID < open[j].ID })
	return open
}

func (m *Store) OpenShipments(context.Context) ([]outship.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("OpenShipments", nil); err != nil {
		return nil, err
	}
	var ids []outship.ID
	for _, s := range m.openShipments() {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

func (m *Store) LinesMissingWorkOrder(context.Context) ([]outship.UnlinkedLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("LinesMissingWorkOrder", nil); err != nil {
		return nil, err
	}
	var rows []outship.UnlinkedLine
	for _, s := range m.openShipments() {
		for _, l := range s.Lines {
			if !l.WorkOrderID.IsZero() {
				continue
			}
			o, ok := m.orders[l.SourceOrderID]
			if !ok {
				continue
			}
			src := o.Line(l.SourceOrderLineKey)
			if src == nil || src.WorkOrderID.IsZero() {
				continue
			}
			rows = append(rows, outship.UnlinkedLine{ShipmentID: s.ID, LineID: l.LineID, WorkOrderID: src.WorkOrderID})
		}
	}
	return rows, nil
}

func (m *Store) OpenWorkOrderLines(_ context.Context, shipmentID outship.ID) ([]outship.WorkOrderLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("OpenWorkOrderLines", shipmentID); err != nil {
		return nil, err
	}
	var rows []outship.WorkOrderLine
	for _, s := range m.openShipments() {
		if !shipmentID.IsZero() && s.ID != shipmentID {
			continue
		}
		for _, l := range s.Lines {
			if l.WorkOrderID.IsZero() || l.QuantityRemaining <= 0 {
				continue
			}
			rows = append(rows, outship.WorkOrderLine{ShipmentID: s.ID, LineID: l.LineID, WorkOrderID: l.WorkOrderID})
		}
	}
	return rows, nil
}

func (m *Store) WorkOrders(_ context.Context, ids []outship.ID) (map[outship.ID]outship.WorkOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts.WorkOrderBatches++
	if err := m.fail("WorkOrders", ids); err != nil {
		return nil, err
	}
	found := make(map[outship.ID]outship.WorkOrder, len(ids))
	for _, id := range ids {
		if wo, ok := m.workOrders[id]; ok {
			found[id] = wo
		}
	}
	return found, nil
}

func (m *Store) filterSerials(keep func(outship.SerialAssignment) bool) []outship.SerialAssignment {
	var out []outship.SerialAssignment
	for _, a := range m.serials {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Store) SerialAssignmentsForLine(_ context.Context, shipmentID, lineKey outship.ID) ([]outship.SerialAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SerialAssignmentsForLine", lineKey); err != nil {
		return nil, err
	}
	return m.filterSerials(func(a outship.SerialAssignment) bool {
		return a.LinkedShipmentID == shipmentID && a.LineKey == lineKey
	}), nil
}

func (m *Store) SerialAssignmentsForShipment(_ context.Context, shipmentID outship.ID) ([]outship.SerialAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SerialAssignmentsForShipment", shipmentID); err != nil {
		return nil, err
	}
	return m.filterSerials(func(a outship.SerialAssignment) bool {
		return a.LinkedShipmentID == shipmentID
	}), nil
}

func (m *Store) OrphanedSerialAssignments(context.Context) ([]outship.SerialAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("OrphanedSerialAssignments", nil); err != nil {
		return nil, err
	}
	return m.filterSerials(func(a outship.SerialAssignment) bool {
		return a.LinkedShipmentID.IsZero()
	}), nil
}

func (m *Store) EditRoles(context.Context) ([]outship.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("EditRoles", nil); err != nil {
		return nil, err
	}
	return append([]outship.ID(nil), m.roles...), nil
}
