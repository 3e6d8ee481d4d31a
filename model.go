package outship

// Shipment is an outbound shipment document.
type Shipment struct {
	ID                 ID      `json:"id" dynamodbav:"id"`
	Number             string  `json:"number" dynamodbav:"number"`
	Status             Status  `json:"status" dynamodbav:"status"`
	LocationID         ID      `json:"location_id" dynamodbav:"location_id"`
	TimezoneKey        int     `json:"timezone_key" dynamodbav:"timezone_key"`
	TotalWeight        Decimal `json:"total_weight" dynamodbav:"total_weight"`
	TotalFreightCharge Decimal `json:"total_freight_charge" dynamodbav:"total_freight_charge"`
	Shippable          bool    `json:"shippable" dynamodbav:"shippable"`
	AllWorkOrdersBegun bool    `json:"all_work_orders_begun" dynamodbav:"all_work_orders_begun"`
	Lines              []Line  `json:"lines" dynamodbav:"lines"`
	Version            int     `json:"version" dynamodbav:"version"`
	CreatedAt          string  `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt          string  `json:"updated_at" dynamodbav:"updated_at"`
}

// Line is a shipment line. SourceOrderLineKey is the join key back to the
// originating source order line.
type Line struct {
	LineID             ID              `json:"line_id" dynamodbav:"line_id"`
	SourceOrderID      ID              `json:"source_order_id" dynamodbav:"source_order_id"`
	SourceOrderLineKey ID              `json:"source_order_line_key" dynamodbav:"source_order_line_key"`
	ItemID             ID              `json:"item_id" dynamodbav:"item_id"`
	ItemType           ItemType        `json:"item_type" dynamodbav:"item_type"`
	QuantityToFulfill  int             `json:"quantity_to_fulfill" dynamodbav:"quantity_to_fulfill"`
	QuantityFulfilled  int             `json:"quantity_fulfilled" dynamodbav:"quantity_fulfilled"`
	QuantityRemaining  int             `json:"quantity_remaining" dynamodbav:"quantity_remaining"`
	Serialized         bool            `json:"serialized" dynamodbav:"serialized"`
	FreightCharge      bool            `json:"freight_charge" dynamodbav:"freight_charge"`
	Shippable          bool            `json:"shippable" dynamodbav:"shippable"`
	Rate               Decimal         `json:"rate" dynamodbav:"rate"`
	Amount             Decimal         `json:"amount" dynamodbav:"amount"`
	ItemWeight         Decimal         `json:"item_weight" dynamodbav:"item_weight"`
	Weight             Decimal         `json:"weight" dynamodbav:"weight"`
	WorkOrderID        ID              `json:"work_order_id" dynamodbav:"work_order_id"`
	WorkOrderStatus    WorkOrderStatus `json:"work_order_status" dynamodbav:"work_order_status"`
	WorkOrderBegun     bool            `json:"work_order_begun" dynamodbav:"work_order_begun"`
	WorkOrderWeight    Decimal         `json:"work_order_weight" dynamodbav:"work_order_weight"`
	StructureTag       string          `json:"structure_tag" dynamodbav:"structure_tag"`
}

// SourceOrder is the parent order (a sales order) that shipment lines claim
// quantity from.
type SourceOrder struct {
	ID      ID                `json:"id" dynamodbav:"id"`
	Number  string            `json:"number" dynamodbav:"number"`
	Lines   []SourceOrderLine `json:"lines" dynamodbav:"lines"`
	Version int               `json:"version" dynamodbav:"version"`
}

type SourceOrderLine struct {
	Key                ID            `json:"key" dynamodbav:"key"`
	ItemID             ID            `json:"item_id" dynamodbav:"item_id"`
	Quantity           int           `json:"quantity" dynamodbav:"quantity"`
	QuantityCommitted  int           `json:"quantity_committed" dynamodbav:"quantity_committed"`
	QuantityOnShipment int           `json:"quantity_on_shipment" dynamodbav:"quantity_on_shipment"`
	WorkOrderID        ID            `json:"work_order_id" dynamodbav:"work_order_id"`
	ShipmentRefs       []ShipmentRef `json:"shipment_refs" dynamodbav:"shipment_refs"`
}

// ShipmentRef is a back-reference from a source order line to a shipment
// holding a claim on it.
type ShipmentRef struct {
	ShipmentID     ID     `json:"shipment_id" dynamodbav:"shipment_id"`
	ShipmentNumber string `json:"shipment_number" dynamodbav:"shipment_number"`
}

// SerialAssignment is a serial number slot for one unit of a serialized
// shipment line. A zero LinkedShipmentID marks an orphan and an empty
// SerialNumber marks a reserved but unassigned slot.
type SerialAssignment struct {
	ID               ID     `json:"id" dynamodbav:"id"`
	LinkedShipmentID ID     `json:"linked_shipment_id" dynamodbav:"linked_shipment_id,omitempty"`
	ItemID           ID     `json:"item_id" dynamodbav:"item_id"`
	LocationID       ID     `json:"location_id" dynamodbav:"location_id"`
	LineKey          ID     `json:"line_key" dynamodbav:"line_key"`
	SerialNumber     string `json:"serial_number" dynamodbav:"serial_number"`
	StructureTag     string `json:"structure_tag" dynamodbav:"structure_tag"`
	CreatedAt        string `json:"created_at" dynamodbav:"created_at"`
}

func (a SerialAssignment) Assigned() bool {
	return a.SerialNumber != ""
}

type WorkOrder struct {
	ID                ID              `json:"id" dynamodbav:"id"`
	Status            WorkOrderStatus `json:"status" dynamodbav:"status"`
	UnitsPouredWeight Decimal         `json:"units_poured_weight" dynamodbav:"units_poured_weight"`
}

type Location struct {
	ID       ID     `json:"id" dynamodbav:"id"`
	Name     string `json:"name" dynamodbav:"name"`
	Timezone string `json:"timezone" dynamodbav:"timezone"`
}

// Line returns the line with the given id, or nil.
func (s *Shipment) Line(lineID ID) *Line {
	for i := range s.Lines {
		if s.Lines[i].LineID == lineID {
			return &s.Lines[i]
		}
	}
	return nil
}

func (s *Shipment) Clone() *Shipment {
	if s == nil {
		return nil
	}
	c := *s
	c.Lines = append([]Line(nil), s.Lines...)
	return &c
}

// Line returns the source order line with the given join key, or nil.
func (o *SourceOrder) Line(key ID) *SourceOrderLine {
	for i := range o.Lines {
		if o.Lines[i].Key == key {
			return &o.Lines[i]
		}
	}
	return nil
}

func (o *SourceOrder) Clone() *SourceOrder {
	if o == nil {
		return nil
	}
	c := *o
	c.Lines = make([]SourceOrderLine, len(o.Lines))
	for i, l := range o.Lines {
		l.ShipmentRefs = append([]ShipmentRef(nil), l.ShipmentRefs...)
		c.Lines[i] = l
	}
	return &c
}

// HasRef reports whether the line references the shipment.
func (l *SourceOrderLine) HasRef(shipmentID ID) bool {
	return l.refIndex(shipmentID) >= 0
}

// AddRef adds a back-reference unless one for the shipment already exists.
func (l *SourceOrderLine) AddRef(ref ShipmentRef) bool {
	if l.HasRef(ref.ShipmentID) {
		return false
	}
	l.ShipmentRefs = append(l.ShipmentRefs, ref)
	return true
}

// RemoveRef drops the back-reference to the shipment if present.
func (l *SourceOrderLine) RemoveRef(shipmentID ID) bool {
	i := l.refIndex(shipmentID)
	if i < 0 {
		return false
	}
	l.ShipmentRefs = append(l.ShipmentRefs[:i], l.ShipmentRefs[i+1:]...)
	return true
}

func (l *SourceOrderLine) refIndex(shipmentID ID) int {
	for i, r := range l.ShipmentRefs {
		if r.ShipmentID == shipmentID {
			return i
		}
	}
	return -1
}
