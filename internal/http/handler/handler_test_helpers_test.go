package handler

import (
	"bytes"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/veyucu/fastits/internal/domain"
	"github.com/veyucu/fastits/internal/repository"
	"github.com/veyucu/fastits/internal/service"
)

func newHandlerDBForTest(t *testing.T) *gorm.DB {
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

type handlerFixture struct {
	db        *gorm.DB
	shipments repository.ShipmentRepository
	receipts  repository.ReceiptRepository
	mux       *chi.Mux
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	db := newHandlerDBForTest(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	shipments := repository.NewShipmentRepository(db)
	receipts := repository.NewReceiptRepository(db)
	ingest := service.NewIngestService(shipments, service.NewNoopManifestArchive(), log)
	notifications := service.NewNotificationService(shipments, service.NewNoopUnitStatusSubmitter(), log)
	receiving := service.NewReceivingService(receipts, shipments, service.NewLocalScopeLocker(), log)

	transfers := NewTransferHandler(ingest, shipments, notifications)
	receiptHandler := NewReceiptHandler(receipts, receiving)

	mux := chi.NewRouter()
	mux.Post("/v1/transfers", transfers.Ingest)
	mux.Get("/v1/transfers", transfers.ListTransfers)
	mux.Get("/v1/transfers/{transferID}", transfers.GetTransfer)
	mux.Post("/v1/transfers/{transferID}/notifications", transfers.Notify)
	mux.Get("/v1/containers/{label}", transfers.GetContainer)
	mux.Get("/v1/containers/{label}/tree", transfers.GetContainerTree)
	mux.Post("/v1/receipts", receiptHandler.CreateDocument)
	mux.Get("/v1/receipts/{documentNumber}", receiptHandler.GetDocument)
	mux.Get("/v1/receipts/{documentNumber}/lines/{lineID}/scans", receiptHandler.ListScans)
	mux.Post("/v1/receipts/{documentNumber}/lines/{lineID}/scans", receiptHandler.RecordScans)
	mux.Delete("/v1/receipts/{documentNumber}/lines/{lineID}/scans", receiptHandler.DeleteScans)
	mux.Post("/v1/receipts/{documentNumber}/lines/{lineID}/container", receiptHandler.ReceiveContainer)

	return &handlerFixture{db: db, shipments: shipments, receipts: receipts, mux: mux}
}

func (f *handlerFixture) do(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.mux.ServeHTTP(rr, req)
	return rr
}

func compressPayload(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close compressor: %v", err)
	}
	return buf.Bytes()
}

func (f *handlerFixture) seedShipment(t *testing.T, transferID uint64, records []domain.HierarchyRecord) {
	t.Helper()
	header := &domain.ShipmentHeader{TransferID: transferID, DocumentNumber: fmt.Sprintf("IRS-%d", transferID)}
	accepted, err := f.shipments.Ingest(context.Background(), header, records)
	if err != nil || !accepted {
		t.Fatalf("seed shipment: accepted=%v err=%v", accepted, err)
	}
}

func labelPtr(s string) *string { return &s }
