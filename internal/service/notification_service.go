package service

import (
	"context"
	"log/slog"

	"github.com/veyucu/fastits/internal/domain"
	"github.com/veyucu/fastits/internal/repository"
)

// UnitStatusSubmitter is the boundary to the national traceability
// service: submit serialized-unit identifiers, get back a status code per
// item. Transport and authentication live behind this interface.
type UnitStatusSubmitter interface {
	Submit(ctx context.Context, transferID uint64, serialNumbers []string) (map[string]string, error)
}

// NoopUnitStatusSubmitter accepts everything. Used in deployments where
// notification is driven by an external process.
type NoopUnitStatusSubmitter struct{}

func NewNoopUnitStatusSubmitter() *NoopUnitStatusSubmitter { return &NoopUnitStatusSubmitter{} }

func (*NoopUnitStatusSubmitter) Submit(_ context.Context, _ uint64, serialNumbers []string) (map[string]string, error) {
	statuses := make(map[string]string, len(serialNumbers))
	for _, sn := range serialNumbers {
		statuses[sn] = domain.NotificationOK
	}
	return statuses, nil
}

// NotificationService pushes an ingested shipment's units to the
// traceability service and records the outcome on the header.
type NotificationService interface {
	NotifyShipment(ctx context.Context, transferID uint64) (string, error)
}

type notificationService struct {
	shipments repository.ShipmentRepository
	submitter UnitStatusSubmitter
	logger    *slog.Logger
}

func NewNotificationService(shipments repository.ShipmentRepository, submitter UnitStatusSubmitter, logger *slog.Logger) NotificationService {
	return &notificationService{shipments: shipments, submitter: submitter, logger: logger}
}

// NotifyShipment submits every serialized unit of the transfer and stores
// OK on the header only when each unit came back OK.
func (s *notificationService) NotifyShipment(ctx context.Context, transferID uint64) (string, error) {
	header, err := s.shipments.FindByTransferID(ctx, transferID)
	if err != nil {
		return "", err
	}

	var serials []string
	for _, rec := range header.Records {
		if rec.SerialNumber != nil {
			serials = append(serials, *rec.SerialNumber)
		}
	}

	status := domain.NotificationOK
	if len(serials) > 0 {
		statuses, err := s.submitter.Submit(ctx, transferID, serials)
		if err != nil {
			return "", err
		}
		for _, sn := range serials {
			if statuses[sn] != domain.NotificationOK {
				status = domain.NotificationNOK
				break
			}
		}
	}

	if err := s.shipments.UpdateNotificationStatus(ctx, transferID, status); err != nil {
		return "", err
	}
	s.logger.Info("shipment notified", "transfer_id", transferID, "status", status, "units", len(serials))
	return status, nil
}
