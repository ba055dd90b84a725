package integration

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/veyucu/fastits/internal/domain"
	"github.com/veyucu/fastits/internal/http/handler"
	"github.com/veyucu/fastits/internal/http/middleware"
	"github.com/veyucu/fastits/internal/http/router"
	"github.com/veyucu/fastits/internal/repository"
	"github.com/veyucu/fastits/internal/service"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type serverOptions struct {
	apiLimitPerMin int
}

func newTraceTestServer(t *testing.T, opts serverOptions) (string, *http.Client, func()) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
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
		t.Fatalf("migrate: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	shipments := repository.NewShipmentRepository(db)
	receipts := repository.NewReceiptRepository(db)
	deps := router.Dependencies{
		Transfers: handler.NewTransferHandler(
			service.NewIngestService(shipments, service.NewNoopManifestArchive(), log),
			shipments,
			service.NewNotificationService(shipments, service.NewNoopUnitStatusSubmitter(), log),
		),
		Receipts: handler.NewReceiptHandler(
			receipts,
			service.NewReceivingService(receipts, shipments, service.NewLocalScopeLocker(), log),
		),
		Logger: log,
	}
	if opts.apiLimitPerMin > 0 {
		deps.APIRateLimit = middleware.NewRateLimiter(opts.apiLimitPerMin, time.Minute, log)
	}

	srv := httptest.NewServer(router.New(deps))
	return srv.URL, srv.Client(), srv.Close
}

func doJSON(t *testing.T, client *http.Client, method, url string, body io.Reader, headers map[string]string) (*http.Response, apiEnvelope) {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var env apiEnvelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode envelope: %v; raw=%s", err, raw)
		}
	}
	return resp, env
}

func doRaw(t *testing.T, client *http.Client, method, url string, body io.Reader, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func assertProblemDetails(t *testing.T, resp *http.Response, body []byte, wantStatus int, wantCode, wantTitle, wantInstance string) {
	t.Helper()
	if resp.StatusCode != wantStatus {
		t.Fatalf("expected %d, got %d: %s", wantStatus, resp.StatusCode, body)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/problem+json" {
		t.Fatalf("expected problem+json content type, got %q", got)
	}
	var problem struct {
		Type     string `json:"type"`
		Title    string `json:"title"`
		Status   int    `json:"status"`
		Code     string `json:"code"`
		Instance string `json:"instance"`
	}
	if err := json.Unmarshal(body, &problem); err != nil {
		t.Fatalf("decode problem details: %v; raw=%s", err, body)
	}
	if problem.Status != wantStatus || problem.Code != wantCode || problem.Title != wantTitle || problem.Instance != wantInstance {
		t.Fatalf("unexpected problem details: %+v", problem)
	}
}

func compressXML(t *testing.T, s string) []byte {
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
