package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/veyucu/fastits/internal/manifest"
	"github.com/veyucu/fastits/internal/repository"
)

// ErrInvalidTransferPayload marks payloads that could not be inflated or
// parsed. Everything after decode is an infrastructure failure instead.
var ErrInvalidTransferPayload = errors.New("invalid transfer payload")

// IngestResult summarizes one transfer-package ingestion.
type IngestResult struct {
	TransferID  uint64 `json:"transfer_id"`
	Accepted    bool   `json:"accepted"`
	RecordCount int    `json:"record_count"`
	ArchiveKey  string `json:"archive_key,omitempty"`
}

type IngestService interface {
	// IngestTransferPackage decodes a compressed transfer package,
	// flattens its hierarchy and persists it. Re-delivery of a known
	// transfer id is a no-op reported through Accepted=false.
	IngestTransferPackage(ctx context.Context, payload io.Reader) (*IngestResult, error)
}

type ingestService struct {
	shipments repository.ShipmentRepository
	archive   ManifestArchive
	logger    *slog.Logger
}

func NewIngestService(shipments repository.ShipmentRepository, archive ManifestArchive, logger *slog.Logger) IngestService {
	return &ingestService{shipments: shipments, archive: archive, logger: logger}
}

func (s *ingestService) IngestTransferPackage(ctx context.Context, payload io.Reader) (*IngestResult, error) {
	raw, err := io.ReadAll(payload)
	if err != nil {
		return nil, fmt.Errorf("read transfer payload: %w", err)
	}

	header, roots, err := manifest.DecodeTransferPackage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransferPayload, err)
	}
	records := manifest.Flatten(roots)

	accepted, err := s.shipments.Ingest(ctx, header, records)
	if err != nil {
		return nil, err
	}
	result := &IngestResult{TransferID: header.TransferID, Accepted: accepted, RecordCount: len(records)}
	if !accepted {
		s.logger.Info("transfer already ingested", "transfer_id", header.TransferID)
		return result, nil
	}

	// Archiving the raw payload is best effort: the shipment is already
	// durable and a re-delivery can always be archived later.
	key, err := s.archive.Store(ctx, header.TransferID, raw)
	if err != nil {
		s.logger.Warn("archive transfer payload", "transfer_id", header.TransferID, "error", err)
	} else {
		result.ArchiveKey = key
	}

	s.logger.Info("transfer ingested",
		"transfer_id", header.TransferID, "records", len(records), "document", header.DocumentNumber)
	return result, nil
}
