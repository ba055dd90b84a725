package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/veyucu/fastits/internal/domain"
)

const receiptBody = `{
  "document_number": "GR-2025-07",
  "supplier_id": "SUP-1",
  "lines": [
    {"line_number": 1, "product_code": "8699999090011", "expected_quantity": 3}
  ]
}`

// rawScanLine builds a decodable barcode for the fixture product.
func rawScanLine(sn string) string {
	return "0108699999090011" + "21" + sn + "17" + "261231" + "10" + "LOTA"
}

func createReceipt(t *testing.T, f *handlerFixture) (docNumber string, lineID uint) {
	t.Helper()
	rr := f.do(t, http.MethodPost, "/v1/receipts", strings.NewReader(receiptBody))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create receipt: got %d body=%s", rr.Code, rr.Body.String())
	}
	var envelope struct {
		Data domain.ReceiptDocument `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if len(envelope.Data.Lines) != 1 {
		t.Fatalf("expected one line, got %+v", envelope.Data.Lines)
	}
	return envelope.Data.DocumentNumber, envelope.Data.Lines[0].ID
}

func scansURL(docNumber string, lineID uint) string {
	return "/v1/receipts/" + docNumber + "/lines/" + strconv.Itoa(int(lineID)) + "/scans"
}

func TestCreateReceiptValidationAndConflict(t *testing.T) {
	f := newHandlerFixture(t)

	if rr := f.do(t, http.MethodPost, "/v1/receipts", strings.NewReader(`{"lines":[]}`)); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing document number: got %d want 400", rr.Code)
	}
	if rr := f.do(t, http.MethodPost, "/v1/receipts", strings.NewReader(`{"document_number":"GR-X","lines":[{"product_code":"","expected_quantity":1}]}`)); rr.Code != http.StatusBadRequest {
		t.Fatalf("empty product code: got %d want 400", rr.Code)
	}

	createReceipt(t, f)
	if rr := f.do(t, http.MethodPost, "/v1/receipts", strings.NewReader(receiptBody)); rr.Code != http.StatusConflict {
		t.Fatalf("duplicate document: got %d want 409", rr.Code)
	}
}

func TestGetReceiptDocument(t *testing.T) {
	f := newHandlerFixture(t)
	docNumber, _ := createReceipt(t, f)

	rr := f.do(t, http.MethodGet, "/v1/receipts/"+docNumber, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get receipt: got %d", rr.Code)
	}
	if rr := f.do(t, http.MethodGet, "/v1/receipts/GR-MISSING", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("missing receipt: got %d want 404", rr.Code)
	}
}

func TestRecordScansEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	docNumber, lineID := createReceipt(t, f)

	body := `{"scans":["` + rawScanLine("RS0001") + `","` + rawScanLine("RS0002") + `","garbage"]}`
	rr := f.do(t, http.MethodPost, scansURL(docNumber, lineID), strings.NewReader(body))
	if rr.Code != http.StatusOK {
		t.Fatalf("record scans: got %d body=%s", rr.Code, rr.Body.String())
	}

	var envelope struct {
		Data struct {
			Results []struct {
				SerialNumber string `json:"serial_number"`
				Status       string `json:"status"`
			} `json:"results"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	results := envelope.Data.Results
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %+v", results)
	}
	if results[0].Status != domain.ScanAccepted || results[1].Status != domain.ScanAccepted {
		t.Fatalf("expected accepted scans, got %+v", results)
	}
	if results[2].Status != domain.ScanMalformed {
		t.Fatalf("expected malformed third result, got %+v", results[2])
	}

	if rr := f.do(t, http.MethodPost, scansURL(docNumber, lineID), strings.NewReader(`{"scans":[]}`)); rr.Code != http.StatusBadRequest {
		t.Fatalf("empty scans: got %d want 400", rr.Code)
	}
	if rr := f.do(t, http.MethodPost, scansURL("GR-MISSING", lineID), strings.NewReader(body)); rr.Code != http.StatusNotFound {
		t.Fatalf("missing document: got %d want 404", rr.Code)
	}
	if rr := f.do(t, http.MethodPost, scansURL(docNumber, lineID+99), strings.NewReader(body)); rr.Code != http.StatusNotFound {
		t.Fatalf("missing line: got %d want 404", rr.Code)
	}
}

func TestListAndDeleteScansEndpoints(t *testing.T) {
	f := newHandlerFixture(t)
	docNumber, lineID := createReceipt(t, f)

	body := `{"scans":["` + rawScanLine("DS0001") + `","` + rawScanLine("DS0002") + `"]}`
	if rr := f.do(t, http.MethodPost, scansURL(docNumber, lineID), strings.NewReader(body)); rr.Code != http.StatusOK {
		t.Fatalf("seed scans: got %d", rr.Code)
	}

	rr := f.do(t, http.MethodGet, scansURL(docNumber, lineID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list scans: got %d", rr.Code)
	}
	data := decodeEnvelopeData(t, rr.Body.Bytes())
	if items, ok := data["items"].([]any); !ok || len(items) != 2 {
		t.Fatalf("expected 2 scans, got %+v", data["items"])
	}

	del := `{"serial_numbers":["DS0001"]}`
	req := f.do(t, http.MethodDelete, scansURL(docNumber, lineID), strings.NewReader(del))
	if req.Code != http.StatusOK {
		t.Fatalf("delete scans: got %d body=%s", req.Code, req.Body.String())
	}
	data = decodeEnvelopeData(t, req.Body.Bytes())
	if data["deleted"] != float64(1) {
		t.Fatalf("expected one deletion, got %+v", data)
	}
}

func TestReceiveContainerEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	docNumber, lineID := createReceipt(t, f)

	s1, s2 := "CT0001", "CT0002"
	f.seedShipment(t, 8501, []domain.HierarchyRecord{
		{ContainerLabel: labelPtr("CS-85"), ContainerType: labelPtr("C")},
		{ContainerLabel: labelPtr("CS-85"), SerialNumber: &s1, ProductCode: labelPtr("08699999090011")},
		{ContainerLabel: labelPtr("CS-85"), SerialNumber: &s2, ProductCode: labelPtr("08699999090011")},
	})

	url := "/v1/receipts/" + docNumber + "/lines/" + strconv.Itoa(int(lineID)) + "/container"
	rr := f.do(t, http.MethodPost, url, strings.NewReader(`{"container_label":"CS-85"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("receive container: got %d body=%s", rr.Code, rr.Body.String())
	}
	data := decodeEnvelopeData(t, rr.Body.Bytes())
	if results, ok := data["results"].([]any); !ok || len(results) != 2 {
		t.Fatalf("expected 2 results, got %+v", data["results"])
	}

	if rr := f.do(t, http.MethodPost, url, strings.NewReader(`{"container_label":"NOPE"}`)); rr.Code != http.StatusNotFound {
		t.Fatalf("missing container: got %d want 404", rr.Code)
	}
	if rr := f.do(t, http.MethodPost, url, strings.NewReader(`{}`)); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing label: got %d want 400", rr.Code)
	}
}
