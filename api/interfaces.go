package api

import (
	"context"

	"github.com/mdblp/analytics-service/schema"
)

type AnalyticsUseCase interface {
	Compute(ctx context.Context, traceID string, subjectID string) (*schema.Snapshot, error)
}
