package handler

import (
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

type TransferHandler struct {
	ingest        service.IngestService
	shipments     repository.ShipmentRepository
	notifications service.NotificationService
}

func NewTransferHandler(
	ingest service.IngestService,
	shipments repository.ShipmentRepository,
	notifications service.NotificationService,
) *TransferHandler {
	return &TransferHandler{ingest: ingest, shipments: shipments, notifications: notifications}
}

// Ingest accepts one compressed transfer package as the request body.
// Re-delivery of a known transfer id responds 200 instead of 201; the
// sender treats both as success and stops retrying.
func (h *TransferHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	result, err := h.ingest.IngestTransferPackage(r.Context(), r.Body)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTransferPayload) {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to ingest transfer package", nil)
		return
	}
	status := http.StatusOK
	if result.Accepted {
		status = http.StatusCreated
	}
	response.JSON(w, r, status, result)
}

func (h *TransferHandler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	transferID, err := strconv.ParseUint(chi.URLParam(r, "transferID"), 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid transfer id", nil)
		return
	}
	header, err := h.shipments.FindByTransferID(r.Context(), transferID)
	if err != nil {
		if errors.Is(err, repository.ErrShipmentNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "transfer not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load transfer", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, header)
}

func (h *TransferHandler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	q := repository.ShipmentListQuery{
		DocumentNumber:     strings.TrimSpace(r.URL.Query().Get("document_number")),
		NotificationStatus: strings.TrimSpace(r.URL.Query().Get("notification_status")),
	}
	q.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	q.PageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))

	result, err := h.shipments.ListPaged(r.Context(), q)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list transfers", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"items":       result.Items,
		"page":        result.Page,
		"page_size":   result.PageSize,
		"total":       result.Total,
		"total_pages": result.TotalPages,
	})
}

// Notify pushes the per-unit statuses of a transfer to the upstream
// traceability service and records the aggregate outcome on the header.
func (h *TransferHandler) Notify(w http.ResponseWriter, r *http.Request) {
	transferID, err := strconv.ParseUint(chi.URLParam(r, "transferID"), 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid transfer id", nil)
		return
	}
	status, err := h.notifications.NotifyShipment(r.Context(), transferID)
	if err != nil {
		if errors.Is(err, repository.ErrShipmentNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "transfer not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to notify transfer", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"transfer_id":         transferID,
		"notification_status": status,
	})
}

// GetContainer returns the record owning a container label together with
// every descendant in the latest shipment that used the label.
func (h *TransferHandler) GetContainer(w http.ResponseWriter, r *http.Request) {
	label := strings.TrimSpace(chi.URLParam(r, "label"))
	if label == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "container label required", nil)
		return
	}
	contents, err := h.shipments.FindByContainerLabel(r.Context(), label)
	if err != nil {
		if errors.Is(err, repository.ErrContainerNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "container label not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load container", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, contents)
}

// GetContainerTree is GetContainer with the flat rows reassembled into the
// nested carrier structure of the original manifest.
func (h *TransferHandler) GetContainerTree(w http.ResponseWriter, r *http.Request) {
	label := strings.TrimSpace(chi.URLParam(r, "label"))
	if label == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "container label required", nil)
		return
	}
	contents, err := h.shipments.FindByContainerLabel(r.Context(), label)
	if err != nil {
		if errors.Is(err, repository.ErrContainerNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "container label not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load container", nil)
		return
	}
	records := append([]domain.HierarchyRecord{}, contents.Root)
	records = append(records, contents.Descendants...)
	response.JSON(w, r, http.StatusOK, map[string]any{
		"label": label,
		"roots": repository.BuildTree(records),
	})
}
