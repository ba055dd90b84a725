package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/veyucu/fastits/internal/domain"
	"github.com/veyucu/fastits/internal/observability"
)

var (
	ErrReceiptDocumentNotFound = errors.New("receipt document not found")
	ErrReceiptLineNotFound     = errors.New("receipt line not found")
)

type ReceiptRepository interface {
	CreateDocument(ctx context.Context, doc *domain.ReceiptDocument) error
	FindDocumentByNumber(ctx context.Context, number string) (*domain.ReceiptDocument, error)
	FindLine(ctx context.Context, documentID, lineID uint) (*domain.ReceiptLine, error)
	// CountScansForLine is the quantity already committed for a line.
	CountScansForLine(ctx context.Context, lineID uint) (int64, error)
	// SerialExists checks the duplicate rule at document scope.
	SerialExists(ctx context.Context, documentID uint, serialNumber string) (bool, error)
	// CreateScans writes a whole accepted batch atomically.
	CreateScans(ctx context.Context, scans []domain.ReceiptScan) error
	ListScansForLine(ctx context.Context, lineID uint) ([]domain.ReceiptScan, error)
	// DeleteScans removes the given serials from a line and repairs
	// container membership: when the last member of a container grouping
	// in that line scope is deleted, every remaining scan of the
	// document still pointing at that label has its container
	// association cleared.
	DeleteScans(ctx context.Context, documentID, lineID uint, serialNumbers []string) (int64, error)
}

type GormReceiptRepository struct{ db *gorm.DB }

func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &GormReceiptRepository{db: db}
}

func (r *GormReceiptRepository) CreateDocument(ctx context.Context, doc *domain.ReceiptDocument) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "receipt", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "receipt", "create", "success")
	return nil
}

func (r *GormReceiptRepository) FindDocumentByNumber(ctx context.Context, number string) (*domain.ReceiptDocument, error) {
	var doc domain.ReceiptDocument
	err := r.db.WithContext(ctx).Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("line_number asc")
	}).First(&doc, "document_number = ?", number).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "receipt", "find_by_number", "not_found")
			return nil, ErrReceiptDocumentNotFound
		}
		observability.RecordRepositoryOperation(ctx, "receipt", "find_by_number", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "receipt", "find_by_number", "success")
	return &doc, nil
}

func (r *GormReceiptRepository) FindLine(ctx context.Context, documentID, lineID uint) (*domain.ReceiptLine, error) {
	var line domain.ReceiptLine
	err := r.db.WithContext(ctx).
		First(&line, "id = ? AND receipt_document_id = ?", lineID, documentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReceiptLineNotFound
		}
		return nil, err
	}
	return &line, nil
}

func (r *GormReceiptRepository) CountScansForLine(ctx context.Context, lineID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ReceiptScan{}).
		Where("receipt_line_id = ?", lineID).Count(&count).Error
	return count, err
}

func (r *GormReceiptRepository) SerialExists(ctx context.Context, documentID uint, serialNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ReceiptScan{}).
		Where("receipt_document_id = ? AND serial_number = ?", documentID, serialNumber).
		Count(&count).Error
	return count > 0, err
}

func (r *GormReceiptRepository) CreateScans(ctx context.Context, scans []domain.ReceiptScan) error {
	if len(scans) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(scans, 200).Error
	})
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "receipt_scan", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "receipt_scan", "create", "success")
	return nil
}

func (r *GormReceiptRepository) ListScansForLine(ctx context.Context, lineID uint) ([]domain.ReceiptScan, error) {
	var scans []domain.ReceiptScan
	err := r.db.WithContext(ctx).
		Where("receipt_line_id = ?", lineID).Order("id asc").Find(&scans).Error
	return scans, err
}

func (r *GormReceiptRepository) DeleteScans(ctx context.Context, documentID, lineID uint, serialNumbers []string) (int64, error) {
	if len(serialNumbers) == 0 {
		return 0, nil
	}
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var victims []domain.ReceiptScan
		err := tx.Where("receipt_document_id = ? AND receipt_line_id = ? AND serial_number IN ?",
			documentID, lineID, serialNumbers).Find(&victims).Error
		if err != nil {
			return err
		}
		if len(victims) == 0 {
			return nil
		}

		labels := map[string]struct{}{}
		ids := make([]uint, 0, len(victims))
		for _, v := range victims {
			ids = append(ids, v.ID)
			if v.ContainerLabel != nil {
				labels[*v.ContainerLabel] = struct{}{}
			}
		}

		res := tx.Delete(&domain.ReceiptScan{}, ids)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected

		for label := range labels {
			if err := repairContainerMembership(tx, documentID, lineID, label); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "receipt_scan", "delete", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(ctx, "receipt_scan", "delete", "success")
	return deleted, nil
}

// repairContainerMembership clears the container association on every
// remaining scan of the document still pointing at label once the line
// scope has no member of that grouping left.
func repairContainerMembership(tx *gorm.DB, documentID, lineID uint, label string) error {
	var remaining int64
	err := tx.Model(&domain.ReceiptScan{}).
		Where("receipt_document_id = ? AND receipt_line_id = ? AND container_label = ?",
			documentID, lineID, label).
		Count(&remaining).Error
	if err != nil {
		return err
	}
	if remaining > 0 {
		return nil
	}
	return tx.Model(&domain.ReceiptScan{}).
		Where("receipt_document_id = ? AND container_label = ?", documentID, label).
		Updates(map[string]any{"container_label": nil, "container_type": nil}).Error
}
