package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/veyucu/fastits/internal/domain"
	"github.com/veyucu/fastits/internal/observability"
)

var (
	ErrShipmentNotFound  = errors.New("shipment not found")
	ErrContainerNotFound = errors.New("container label not found")
)

// ContainerContents is the result of a container-label lookup: the record
// bearing the label plus every descendant reachable through
// parent-container links within the same shipment.
type ContainerContents struct {
	Root        domain.HierarchyRecord
	Descendants []domain.HierarchyRecord
}

type ShipmentListQuery struct {
	PageRequest
	DocumentNumber     string
	NotificationStatus string
}

type ShipmentRepository interface {
	// Ingest persists a manifest atomically. It reports accepted=false
	// without writing anything when the transfer id is already known;
	// re-ingestion is a no-op, not an error.
	Ingest(ctx context.Context, header *domain.ShipmentHeader, records []domain.HierarchyRecord) (accepted bool, err error)
	FindByTransferID(ctx context.Context, transferID uint64) (*domain.ShipmentHeader, error)
	FindByContainerLabel(ctx context.Context, label string) (*ContainerContents, error)
	ListPaged(ctx context.Context, q ShipmentListQuery) (PageResult[domain.ShipmentHeader], error)
	UpdateNotificationStatus(ctx context.Context, transferID uint64, status string) error
}

type GormShipmentRepository struct{ db *gorm.DB }

func NewShipmentRepository(db *gorm.DB) ShipmentRepository {
	return &GormShipmentRepository{db: db}
}

func (r *GormShipmentRepository) Ingest(ctx context.Context, header *domain.ShipmentHeader, records []domain.HierarchyRecord) (bool, error) {
	exists, err := r.transferExists(ctx, header.TransferID)
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "shipment", "ingest", "error")
		return false, err
	}
	if exists {
		observability.RecordRepositoryOperation(ctx, "shipment", "ingest", "skipped")
		return false, nil
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Records").Create(header).Error; err != nil {
			return err
		}
		for i := range records {
			records[i].TransferID = header.TransferID
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, 500).Error
	})
	if err != nil {
		// A concurrent ingest of the same transfer may have won the
		// race between the existence check and the insert.
		if exists, checkErr := r.transferExists(ctx, header.TransferID); checkErr == nil && exists {
			observability.RecordRepositoryOperation(ctx, "shipment", "ingest", "skipped")
			return false, nil
		}
		observability.RecordRepositoryOperation(ctx, "shipment", "ingest", "error")
		return false, err
	}
	observability.RecordRepositoryOperation(ctx, "shipment", "ingest", "success")
	return true, nil
}

func (r *GormShipmentRepository) transferExists(ctx context.Context, transferID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ShipmentHeader{}).
		Where("transfer_id = ?", transferID).Count(&count).Error
	return count > 0, err
}

func (r *GormShipmentRepository) FindByTransferID(ctx context.Context, transferID uint64) (*domain.ShipmentHeader, error) {
	var header domain.ShipmentHeader
	err := r.db.WithContext(ctx).Preload("Records", func(db *gorm.DB) *gorm.DB {
		return db.Order("container_level asc").Order("id asc")
	}).First(&header, "transfer_id = ?", transferID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "shipment", "find_by_transfer_id", "not_found")
			return nil, ErrShipmentNotFound
		}
		observability.RecordRepositoryOperation(ctx, "shipment", "find_by_transfer_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "shipment", "find_by_transfer_id", "success")
	return &header, nil
}

// FindByContainerLabel resolves a label to its record (latest shipment
// wins when a label was reused across transfers) and expands every
// descendant within that shipment. Expansion walks the label adjacency
// list breadth-first; it terminates because the hierarchy is acyclic by
// construction.
func (r *GormShipmentRepository) FindByContainerLabel(ctx context.Context, label string) (*ContainerContents, error) {
	var root domain.HierarchyRecord
	err := r.db.WithContext(ctx).
		Where("container_label = ?", label).
		Order("transfer_id desc").Order("id asc").
		First(&root).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "shipment", "find_by_container_label", "not_found")
			return nil, ErrContainerNotFound
		}
		observability.RecordRepositoryOperation(ctx, "shipment", "find_by_container_label", "error")
		return nil, err
	}

	contents := &ContainerContents{Root: root}
	seen := map[uint]struct{}{root.ID: {}}
	frontier := []string{label}
	for len(frontier) > 0 {
		var batch []domain.HierarchyRecord
		err := r.db.WithContext(ctx).
			Where("transfer_id = ?", root.TransferID).
			Where("parent_container_label IN ? OR (container_label IN ? AND serial_number IS NOT NULL)", frontier, frontier).
			Find(&batch).Error
		if err != nil {
			observability.RecordRepositoryOperation(ctx, "shipment", "find_by_container_label", "error")
			return nil, err
		}
		var next []string
		for _, rec := range batch {
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			seen[rec.ID] = struct{}{}
			contents.Descendants = append(contents.Descendants, rec)
			if rec.IsContainer() && rec.ContainerLabel != nil {
				next = append(next, *rec.ContainerLabel)
			}
		}
		frontier = next
	}
	observability.RecordRepositoryOperation(ctx, "shipment", "find_by_container_label", "success")
	return contents, nil
}

func (r *GormShipmentRepository) ListPaged(ctx context.Context, q ShipmentListQuery) (PageResult[domain.ShipmentHeader], error) {
	page := normalizePageRequest(q.PageRequest)
	tx := r.db.WithContext(ctx).Model(&domain.ShipmentHeader{})
	if q.DocumentNumber != "" {
		tx = tx.Where("document_number = ?", q.DocumentNumber)
	}
	if q.NotificationStatus != "" {
		tx = tx.Where("notification_status = ?", q.NotificationStatus)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "shipment", "list", "error")
		return PageResult[domain.ShipmentHeader]{}, err
	}
	var headers []domain.ShipmentHeader
	err := tx.Order("transfer_id desc").
		Limit(page.PageSize).
		Offset((page.Page - 1) * page.PageSize).
		Find(&headers).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "shipment", "list", "error")
		return PageResult[domain.ShipmentHeader]{}, err
	}
	observability.RecordRepositoryOperation(ctx, "shipment", "list", "success")
	return PageResult[domain.ShipmentHeader]{
		Items:      headers,
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      total,
		TotalPages: calcTotalPages(total, page.PageSize),
	}, nil
}

// UpdateNotificationStatus is the only mutation a header ever sees after
// ingestion.
func (r *GormShipmentRepository) UpdateNotificationStatus(ctx context.Context, transferID uint64, status string) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&domain.ShipmentHeader{}).
		Where("transfer_id = ?", transferID).
		Updates(map[string]any{"notification_status": status, "notified_at": &now})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "shipment", "update_notification", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "shipment", "update_notification", "not_found")
		return ErrShipmentNotFound
	}
	observability.RecordRepositoryOperation(ctx, "shipment", "update_notification", "success")
	return nil
}
