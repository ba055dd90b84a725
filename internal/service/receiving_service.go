package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/veyucu/fastits/internal/domain"
	"github.com/veyucu/fastits/internal/gs1"
	"github.com/veyucu/fastits/internal/repository"
)

// ErrNoMatchingUnits rejects a container grouping when nothing relevant
// to the receiving document was found beneath the label.
var ErrNoMatchingUnits = errors.New("no units in container match the expected products")

// ScanResult is the per-scan outcome the operator sees. Raw is echoed so
// the operator can match rejections to physical boxes.
type ScanResult struct {
	Raw          string `json:"raw"`
	SerialNumber string `json:"serial_number,omitempty"`
	Status       string `json:"status"`
	Detail       string `json:"detail,omitempty"`
}

// ReceivingService reconciles operator scans against a receipt document:
// barcode decode, duplicate rejection, additive quantity guard and
// container grouping.
type ReceivingService interface {
	// RecordScans decodes and validates a batch of raw scan lines for
	// one receipt line. Individual malformed or duplicate scans never
	// abort the batch; a batch that would overshoot the expected
	// quantity is rejected in full.
	RecordScans(ctx context.Context, documentID, lineID uint, raws []string) ([]ScanResult, error)
	// ReceiveContainer accepts every unit under a container label whose
	// product code matches the receipt line, applying the same
	// duplicate and quantity rules as individual scans.
	ReceiveContainer(ctx context.Context, documentID, lineID uint, containerLabel string) ([]ScanResult, error)
	// GroupContainerContents returns the units beneath a container
	// whose product code, compared with leading zeros stripped, is in
	// the allow-list.
	GroupContainerContents(ctx context.Context, containerLabel string, allowedProductCodes []string) ([]domain.HierarchyRecord, error)
	// DeleteScans removes accepted serials from a line and repairs
	// container membership for the survivors.
	DeleteScans(ctx context.Context, documentID, lineID uint, serialNumbers []string) (int64, error)
}

type receivingService struct {
	receipts  repository.ReceiptRepository
	shipments repository.ShipmentRepository
	locker    ScopeLocker
	logger    *slog.Logger
}

func NewReceivingService(
	receipts repository.ReceiptRepository,
	shipments repository.ShipmentRepository,
	locker ScopeLocker,
	logger *slog.Logger,
) ReceivingService {
	return &receivingService{receipts: receipts, shipments: shipments, locker: locker, logger: logger}
}

func (s *receivingService) RecordScans(ctx context.Context, documentID, lineID uint, raws []string) ([]ScanResult, error) {
	results := make([]ScanResult, 0, len(raws))
	candidates := make([]domain.ReceiptScan, 0, len(raws))
	candidateIdx := make([]int, 0, len(raws))

	for _, raw := range raws {
		id, err := gs1.Decode(raw)
		if err != nil {
			results = append(results, ScanResult{Raw: raw, Status: domain.ScanMalformed, Detail: err.Error()})
			continue
		}
		results = append(results, ScanResult{Raw: raw, SerialNumber: id.SerialNumber})
		candidateIdx = append(candidateIdx, len(results)-1)
		candidates = append(candidates, domain.ReceiptScan{
			ReceiptDocumentID: documentID,
			ReceiptLineID:     lineID,
			SerialNumber:      id.SerialNumber,
			ProductCode:       id.ProductCode,
			LotNumber:         id.LotNumber,
			ExpiryRaw:         id.ExpiryRaw,
		})
	}

	if err := s.commitScans(ctx, documentID, lineID, candidates, results, candidateIdx); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *receivingService) ReceiveContainer(ctx context.Context, documentID, lineID uint, containerLabel string) ([]ScanResult, error) {
	line, err := s.receipts.FindLine(ctx, documentID, lineID)
	if err != nil {
		return nil, err
	}
	units, err := s.GroupContainerContents(ctx, containerLabel, []string{line.ProductCode})
	if err != nil {
		return nil, err
	}

	results := make([]ScanResult, 0, len(units))
	candidates := make([]domain.ReceiptScan, 0, len(units))
	candidateIdx := make([]int, 0, len(units))
	for _, u := range units {
		results = append(results, ScanResult{SerialNumber: *u.SerialNumber})
		candidateIdx = append(candidateIdx, len(results)-1)
		scan := domain.ReceiptScan{
			ReceiptDocumentID: documentID,
			ReceiptLineID:     lineID,
			SerialNumber:      *u.SerialNumber,
			ProductCode:       deref(u.ProductCode),
			LotNumber:         deref(u.LotNumber),
			ExpiryRaw:         deref(u.ExpirationDate),
			ContainerLabel:    u.ContainerLabel,
			ContainerType:     u.ContainerType,
		}
		candidates = append(candidates, scan)
	}

	if err := s.commitScans(ctx, documentID, lineID, candidates, results, candidateIdx); err != nil {
		return nil, err
	}
	return results, nil
}

// commitScans runs the duplicate and quantity checks and the write as one
// serialized unit under the line's scope lock. candidates[i] corresponds
// to results[candidateIdx[i]].
func (s *receivingService) commitScans(ctx context.Context, documentID, lineID uint, candidates []domain.ReceiptScan, results []ScanResult, candidateIdx []int) error {
	if len(candidates) == 0 {
		return nil
	}

	release, err := s.locker.Acquire(ctx, LineScope(documentID, lineID))
	if err != nil {
		return fmt.Errorf("serialize line scope: %w", err)
	}
	defer release()

	line, err := s.receipts.FindLine(ctx, documentID, lineID)
	if err != nil {
		return err
	}

	accepted := make([]domain.ReceiptScan, 0, len(candidates))
	acceptedIdx := make([]int, 0, len(candidates))
	batchSeen := make(map[string]struct{}, len(candidates))
	for i, scan := range candidates {
		ri := candidateIdx[i]
		if _, dup := batchSeen[scan.SerialNumber]; dup {
			results[ri].Status = domain.ScanDuplicate
			continue
		}
		exists, err := s.receipts.SerialExists(ctx, documentID, scan.SerialNumber)
		if err != nil {
			return err
		}
		if exists {
			results[ri].Status = domain.ScanDuplicate
			continue
		}
		batchSeen[scan.SerialNumber] = struct{}{}
		accepted = append(accepted, scan)
		acceptedIdx = append(acceptedIdx, ri)
	}

	committed, err := s.receipts.CountScansForLine(ctx, lineID)
	if err != nil {
		return err
	}
	// Additive check: quantity already committed plus the whole incoming
	// batch. Overshoot rejects the batch in full, never partially.
	if committed+int64(len(accepted)) > int64(line.ExpectedQuantity) {
		for _, ri := range acceptedIdx {
			results[ri].Status = domain.ScanQuantityExceeded
			results[ri].Detail = fmt.Sprintf("line expects %d, already received %d", line.ExpectedQuantity, committed)
		}
		s.logger.Warn("scan batch over expected quantity",
			"document_id", documentID, "line_id", lineID,
			"expected", line.ExpectedQuantity, "committed", committed, "incoming", len(accepted))
		return nil
	}

	for i := range accepted {
		accepted[i].ScanEventID = uuid.NewString()
	}
	if err := s.receipts.CreateScans(ctx, accepted); err != nil {
		return err
	}
	for _, ri := range acceptedIdx {
		results[ri].Status = domain.ScanAccepted
	}
	return nil
}

func (s *receivingService) GroupContainerContents(ctx context.Context, containerLabel string, allowedProductCodes []string) ([]domain.HierarchyRecord, error) {
	contents, err := s.shipments.FindByContainerLabel(ctx, containerLabel)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]struct{}, len(allowedProductCodes))
	for _, code := range allowedProductCodes {
		allowed[gs1.NormalizeProductCode(code)] = struct{}{}
	}

	var units []domain.HierarchyRecord
	for _, rec := range contents.Descendants {
		if rec.IsContainer() || rec.ProductCode == nil {
			continue
		}
		if _, ok := allowed[gs1.NormalizeProductCode(*rec.ProductCode)]; ok {
			units = append(units, rec)
		}
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("%w: container %q", ErrNoMatchingUnits, containerLabel)
	}
	return units, nil
}

func (s *receivingService) DeleteScans(ctx context.Context, documentID, lineID uint, serialNumbers []string) (int64, error) {
	release, err := s.locker.Acquire(ctx, LineScope(documentID, lineID))
	if err != nil {
		return 0, fmt.Errorf("serialize line scope: %w", err)
	}
	defer release()
	return s.receipts.DeleteScans(ctx, documentID, lineID, serialNumbers)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
