package outship

// Status is the derived fulfillment status of a shipment.
type Status string

const (
	StatusPending   Status = "A"
	StatusPartial   Status = "E"
	StatusFulfilled Status = "B"
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending Fulfillment"
	case StatusPartial:
		return "Partially Fulfilled"
	case StatusFulfilled:
		return "Fulfilled"
	}
	return string(s)
}

// Open reports whether the shipment still has quantity to ship.
func (s Status) Open() bool {
	return s == StatusPending || s == StatusPartial
}

// DeriveStatus computes a shipment status from its aggregate line quantities.
// A shipment without quantity is pending.
func DeriveStatus(toFulfill, remaining int) Status {
	switch {
	case toFulfill <= 0:
		return StatusPending
	case remaining <= 0:
		return StatusFulfilled
	case remaining >= toFulfill:
		return StatusPending
	default:
		return StatusPartial
	}
}

// WorkOrderStatus is the status text of a work order.
type WorkOrderStatus string

const (
	WorkOrderNotStarted WorkOrderStatus = "Not Started"
	WorkOrderReleased   WorkOrderStatus = "Released"
	WorkOrderInProcess  WorkOrderStatus = "In Process"
	WorkOrderBuilt      WorkOrderStatus = "Built"
	WorkOrderClosed     WorkOrderStatus = "Closed"
	WorkOrderCancelled  WorkOrderStatus = "Cancelled"
)

// Begun reports whether production on the work order has started.
func (s WorkOrderStatus) Begun() bool {
	switch s {
	case WorkOrderInProcess, WorkOrderClosed, WorkOrderBuilt:
		return true
	}
	return false
}

// ItemType classifies the item on a shipment line.
type ItemType string

const (
	ItemTypeInventory    ItemType = "InvtPart"
	ItemTypeNonInventory ItemType = "NonInvtPart"
	ItemTypeAssembly     ItemType = "Assembly"
	ItemTypeService      ItemType = "Service"
	ItemTypeOther        ItemType = "OthCharge"
)
