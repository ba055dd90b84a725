package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/veyucu/fastits/internal/domain"
	"github.com/veyucu/fastits/internal/http/response"
	"github.com/veyucu/fastits/internal/repository"
	"github.com/veyucu/fastits/internal/service"
)

type ReceiptHandler struct {
	receipts  repository.ReceiptRepository
	receiving service.ReceivingService
}

func NewReceiptHandler(receipts repository.ReceiptRepository, receiving service.ReceivingService) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts, receiving: receiving}
}

type createReceiptLineRequest struct {
	LineNumber       int    `json:"line_number"`
	ProductCode      string `json:"product_code"`
	ExpectedQuantity int    `json:"expected_quantity"`
}

type createReceiptRequest struct {
	DocumentNumber string                     `json:"document_number"`
	SupplierID     string                     `json:"supplier_id"`
	Lines          []createReceiptLineRequest `json:"lines"`
}

func (h *ReceiptHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req createReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	req.DocumentNumber = strings.TrimSpace(req.DocumentNumber)
	if req.DocumentNumber == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "document_number is required", nil)
		return
	}
	if len(req.Lines) == 0 {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "at least one line is required", nil)
		return
	}
	doc := domain.ReceiptDocument{
		DocumentNumber: req.DocumentNumber,
		SupplierID:     strings.TrimSpace(req.SupplierID),
	}
	for _, line := range req.Lines {
		code := strings.TrimSpace(line.ProductCode)
		if code == "" || line.ExpectedQuantity < 1 {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST",
				"every line needs a product_code and a positive expected_quantity", nil)
			return
		}
		doc.Lines = append(doc.Lines, domain.ReceiptLine{
			LineNumber:       line.LineNumber,
			ProductCode:      code,
			ExpectedQuantity: line.ExpectedQuantity,
		})
	}

	if _, err := h.receipts.FindDocumentByNumber(r.Context(), doc.DocumentNumber); err == nil {
		response.Error(w, r, http.StatusConflict, "CONFLICT", "receipt document already exists", nil)
		return
	} else if !errors.Is(err, repository.ErrReceiptDocumentNotFound) {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to create receipt document", nil)
		return
	}

	if err := h.receipts.CreateDocument(r.Context(), &doc); err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to create receipt document", nil)
		return
	}
	response.JSON(w, r, http.StatusCreated, doc)
}

func (h *ReceiptHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.resolveDocument(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, doc)
}

type recordScansRequest struct {
	Scans []string `json:"scans"`
}

// RecordScans commits a batch of raw barcode lines against one receipt
// line. The response always carries one result per submitted scan.
func (h *ReceiptHandler) RecordScans(w http.ResponseWriter, r *http.Request) {
	doc, lineID, ok := h.resolveLine(w, r)
	if !ok {
		return
	}
	var req recordScansRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Scans) == 0 {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "scans must be a non-empty array", nil)
		return
	}
	results, err := h.receiving.RecordScans(r.Context(), doc.ID, lineID, req.Scans)
	if err != nil {
		h.writeReceivingError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"results": results})
}

type receiveContainerRequest struct {
	ContainerLabel string `json:"container_label"`
}

// ReceiveContainer accepts every matching unit under a container label in
// one operation instead of scanning each box.
func (h *ReceiptHandler) ReceiveContainer(w http.ResponseWriter, r *http.Request) {
	doc, lineID, ok := h.resolveLine(w, r)
	if !ok {
		return
	}
	var req receiveContainerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.ContainerLabel) == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "container_label is required", nil)
		return
	}
	results, err := h.receiving.ReceiveContainer(r.Context(), doc.ID, lineID, strings.TrimSpace(req.ContainerLabel))
	if err != nil {
		h.writeReceivingError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"results": results})
}

func (h *ReceiptHandler) ListScans(w http.ResponseWriter, r *http.Request) {
	_, lineID, ok := h.resolveLine(w, r)
	if !ok {
		return
	}
	scans, err := h.receipts.ListScansForLine(r.Context(), lineID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list scans", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"items": scans})
}

type deleteScansRequest struct {
	SerialNumbers []string `json:"serial_numbers"`
}

func (h *ReceiptHandler) DeleteScans(w http.ResponseWriter, r *http.Request) {
	doc, lineID, ok := h.resolveLine(w, r)
	if !ok {
		return
	}
	var req deleteScansRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.SerialNumbers) == 0 {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "serial_numbers must be a non-empty array", nil)
		return
	}
	deleted, err := h.receiving.DeleteScans(r.Context(), doc.ID, lineID, req.SerialNumbers)
	if err != nil {
		h.writeReceivingError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": deleted})
}

func (h *ReceiptHandler) resolveDocument(w http.ResponseWriter, r *http.Request) (*domain.ReceiptDocument, bool) {
	number := strings.TrimSpace(chi.URLParam(r, "documentNumber"))
	if number == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "document number required", nil)
		return nil, false
	}
	doc, err := h.receipts.FindDocumentByNumber(r.Context(), number)
	if err != nil {
		if errors.Is(err, repository.ErrReceiptDocumentNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "receipt document not found", nil)
			return nil, false
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load receipt document", nil)
		return nil, false
	}
	return doc, true
}

func (h *ReceiptHandler) resolveLine(w http.ResponseWriter, r *http.Request) (*domain.ReceiptDocument, uint, bool) {
	doc, ok := h.resolveDocument(w, r)
	if !ok {
		return nil, 0, false
	}
	lineID, err := strconv.ParseUint(chi.URLParam(r, "lineID"), 10, 32)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid line id", nil)
		return nil, 0, false
	}
	return doc, uint(lineID), true
}

func (h *ReceiptHandler) writeReceivingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrReceiptLineNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "receipt line not found", nil)
	case errors.Is(err, repository.ErrContainerNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "container label not found", nil)
	case errors.Is(err, service.ErrNoMatchingUnits):
		response.Error(w, r, http.StatusUnprocessableEntity, "UNPROCESSABLE",
			"no units under the container match the receipt line", nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "receiving operation failed", nil)
	}
}
