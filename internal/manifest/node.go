// Package manifest turns transfer-package manifests from the national
// traceability service into the flat hierarchy rows the store persists.
package manifest

// UnitGroup is one product position inside a carrier: shared product
// attributes plus the serial numbers of the units in the group.
type UnitGroup struct {
	ProductCode         string
	ExpirationDate      string
	ProductionDate      string
	LotNumber           string
	PurchaseOrderNumber string
	SerialNumbers       []string
}

// Node is one container element of the manifest tree. A node without a
// ContainerLabel holds loose units sitting directly at the shipment root.
type Node struct {
	ContainerLabel string
	ContainerType  string
	Groups         []UnitGroup
	Children       []Node
}
