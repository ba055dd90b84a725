package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/veyucu/fastits/internal/domain"
	"github.com/veyucu/fastits/internal/repository"
)

func newServiceDBForTest(t *testing.T) *gorm.DB {
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

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newReceivingFixture(t *testing.T) (ReceivingService, repository.ReceiptRepository, repository.ShipmentRepository, *domain.ReceiptDocument) {
	t.Helper()
	db := newServiceDBForTest(t)
	receipts := repository.NewReceiptRepository(db)
	shipments := repository.NewShipmentRepository(db)
	svc := NewReceivingService(receipts, shipments, NewLocalScopeLocker(), testLogger())

	doc := &domain.ReceiptDocument{
		DocumentNumber: "GR-1",
		Lines: []domain.ReceiptLine{
			{LineNumber: 1, ProductCode: "8699999090011", ExpectedQuantity: 3},
			{LineNumber: 2, ProductCode: "8699999090028", ExpectedQuantity: 10},
		},
	}
	if err := receipts.CreateDocument(context.Background(), doc); err != nil {
		t.Fatalf("create document: %v", err)
	}
	return svc, receipts, shipments, doc
}

// rawScan builds a decodable barcode string for serial sn of the fixture's
// first line product.
func rawScan(sn string) string {
	return "0108699999090011" + "21" + sn + "17" + "261231" + "10" + "LOTA"
}
