package repository

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/veyucu/fastits/internal/domain"
)

func newRepositoryDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.ShipmentHeader{},
		&domain.HierarchyRecord{},
		&domain.ReceiptDocument{},
		&domain.ReceiptLine{},
		&domain.ReceiptScan{},
	); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	return db
}

func strPtr(s string) *string { return &s }
