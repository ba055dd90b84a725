package database

import (
	"github.com/veyucu/fastits/internal/domain"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.ShipmentHeader{},
		&domain.HierarchyRecord{},
		&domain.ReceiptDocument{},
		&domain.ReceiptLine{},
		&domain.ReceiptScan{},
	)
}
