package usecase

import (
	"context"

	"github.com/mdblp/analytics-service/schema"
)

// ReadingRepository read side: the relational store of temperature readings
type ReadingRepository interface {
	FetchReadings(ctx context.Context, subjectID string) ([]schema.Reading, error)
}

// SnapshotRepository write side: append only store of computed snapshots
type SnapshotRepository interface {
	Persist(ctx context.Context, snapshot *schema.Snapshot) error
}

// Pinger is implemented by every store, used by the status route
type Pinger interface {
	Ping(ctx context.Context) error
}
