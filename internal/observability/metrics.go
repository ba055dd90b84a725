package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	repoOpsOnce    sync.Once
	repoOpsCounter metric.Int64Counter
)

// RecordRepositoryOperation counts one repository call by entity,
// operation and outcome. It is a no-op until a meter provider is
// installed and never fails the caller.
func RecordRepositoryOperation(ctx context.Context, entity, operation, outcome string) {
	repoOpsOnce.Do(func() {
		counter, err := otel.Meter("fastits/repository").Int64Counter(
			"repository_operations_total",
			metric.WithDescription("Repository operations by entity, operation and outcome"),
		)
		if err != nil {
			return
		}
		repoOpsCounter = counter
	})
	if repoOpsCounter == nil {
		return
	}
	repoOpsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}
