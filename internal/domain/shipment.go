package domain

import "time"

// Notification outcomes reported back by the traceability service for a
// whole transfer package.
const (
	NotificationUnset = ""
	NotificationOK    = "OK"
	NotificationNOK   = "NOK"
)

// ShipmentHeader is one inbound transfer package. Headers are insert-only:
// after ingestion only NotificationStatus/NotifiedAt may change.
type ShipmentHeader struct {
	TransferID           uint64            `gorm:"primaryKey;autoIncrement:false" json:"transfer_id"`
	DocumentNumber       string            `gorm:"size:64;index" json:"document_number"`
	DocumentDate         *time.Time        `json:"document_date,omitempty"`
	SourceLocationID     string            `gorm:"size:32" json:"source_location_id"`
	DestLocationID       string            `gorm:"size:32" json:"dest_location_id"`
	ActionType           string            `gorm:"size:8" json:"action_type"`
	ShipToID             string            `gorm:"size:32" json:"ship_to_id"`
	Note                 string            `gorm:"size:512" json:"note"`
	FormatVersion        string            `gorm:"size:16" json:"format_version"`
	NotificationStatus   string            `gorm:"size:8;not null;default:''" json:"notification_status"`
	NotifiedAt           *time.Time        `json:"notified_at,omitempty"`
	Records              []HierarchyRecord `gorm:"foreignKey:TransferID;references:TransferID;constraint:OnDelete:CASCADE" json:"records,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// HierarchyRecord is one flattened node of a transfer package: a container
// (pallet, case, bundle) or a serialized unit. SerialNumber is the
// discriminator: nil means the row is a container node.
type HierarchyRecord struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	TransferID           uint64     `gorm:"not null;index" json:"transfer_id"`
	ContainerLabel       *string    `gorm:"size:64;index" json:"container_label,omitempty"`
	ParentContainerLabel *string    `gorm:"size:64;index" json:"parent_container_label,omitempty"`
	ContainerType        *string    `gorm:"size:8" json:"container_type,omitempty"`
	ContainerLevel       int        `gorm:"not null;default:0" json:"container_level"`
	ProductCode          *string    `gorm:"size:14;index" json:"product_code,omitempty"`
	SerialNumber         *string    `gorm:"size:32;index" json:"serial_number,omitempty"`
	LotNumber            *string    `gorm:"size:32" json:"lot_number,omitempty"`
	ExpirationDate       *string    `gorm:"size:16" json:"expiration_date,omitempty"`
	ProductionDate       *string    `gorm:"size:16" json:"production_date,omitempty"`
	PurchaseOrderNumber  *string    `gorm:"size:32" json:"purchase_order_number,omitempty"`
	LineStatus           string     `gorm:"size:8;not null;default:''" json:"line_status"`
	NotifiedAt           *time.Time `json:"notified_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

// IsContainer reports whether the row describes a container node rather
// than a serialized unit.
func (r *HierarchyRecord) IsContainer() bool {
	return r.SerialNumber == nil
}
