package domain

import "time"

// Per-scan outcomes surfaced to the operator. Each maps to a different
// corrective action, so they are never collapsed into a generic failure.
const (
	ScanAccepted         = "accepted"
	ScanDuplicate        = "duplicate"
	ScanQuantityExceeded = "quantity_exceeded"
	ScanMalformed        = "malformed"
)

// ReceiptDocument is a goods-receipt document an operator scans against.
type ReceiptDocument struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	DocumentNumber string        `gorm:"size:64;uniqueIndex;not null" json:"document_number"`
	DocumentDate   *time.Time    `json:"document_date,omitempty"`
	SupplierID     string        `gorm:"size:32" json:"supplier_id"`
	Status         string        `gorm:"size:16;not null;default:'open'" json:"status"`
	Lines          []ReceiptLine `gorm:"foreignKey:ReceiptDocumentID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// ReceiptLine is one expected product position on a receipt document.
type ReceiptLine struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	ReceiptDocumentID uint      `gorm:"not null;index" json:"receipt_document_id"`
	LineNumber        int       `gorm:"not null" json:"line_number"`
	ProductCode       string    `gorm:"size:14;not null;index" json:"product_code"`
	ExpectedQuantity  int       `gorm:"not null" json:"expected_quantity"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ReceiptScan is one accepted serialized unit recorded against a receipt
// line. The unique index backs the duplicate-serial rule at the storage
// level; the service checks it at document scope before writing.
type ReceiptScan struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	ReceiptDocumentID uint      `gorm:"not null;index" json:"receipt_document_id"`
	ReceiptLineID     uint      `gorm:"not null;index;uniqueIndex:idx_receipt_scan_line_serial" json:"receipt_line_id"`
	SerialNumber      string    `gorm:"size:32;not null;uniqueIndex:idx_receipt_scan_line_serial" json:"serial_number"`
	ProductCode       string    `gorm:"size:14;not null" json:"product_code"`
	LotNumber         string    `gorm:"size:32" json:"lot_number"`
	ExpiryRaw         string    `gorm:"size:8" json:"expiry_raw"`
	ContainerLabel    *string   `gorm:"size:64;index" json:"container_label,omitempty"`
	ContainerType     *string   `gorm:"size:8" json:"container_type,omitempty"`
	ScanEventID       string    `gorm:"size:36;not null" json:"scan_event_id"`
	CreatedAt         time.Time `json:"created_at"`
}
