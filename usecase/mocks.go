package usecase

import (
	"context"

	"github.com/mdblp/analytics-service/schema"
	"github.com/stretchr/testify/mock"
)

// MockReadingRepository use for unit tests
type MockReadingRepository struct {
	mock.Mock
}

func (m *MockReadingRepository) FetchReadings(ctx context.Context, subjectID string) ([]schema.Reading, error) {
	args := m.Called(ctx, subjectID)
	readings, _ := args.Get(0).([]schema.Reading)
	return readings, args.Error(1)
}

func (m *MockReadingRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockSnapshotRepository use for unit tests
type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) Persist(ctx context.Context, snapshot *schema.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockSnapshotRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
