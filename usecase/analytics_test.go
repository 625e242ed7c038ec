package usecase

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/mdblp/analytics-service/common"
	"github.com/mdblp/analytics-service/schema"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var computeTime = time.Date(2024, time.May, 14, 16, 45, 12, 0, time.Local)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestAnalytics(readings ReadingRepository, snapshots SnapshotRepository) *Analytics {
	a := NewAnalytics(testLogger(), readings, snapshots, time.Second)
	a.now = func() time.Time { return computeTime }
	return a
}

func readingsOf(subjectID int64, values ...float64) []schema.Reading {
	readings := make([]schema.Reading, 0, len(values))
	for _, v := range values {
		readings = append(readings, schema.Reading{SubjectID: subjectID, Value: v})
	}
	return readings
}

func TestAnalytics_Compute(t *testing.T) {
	storeDown := errors.New("dial tcp 10.0.0.3:3306: connect: connection refused")
	mongoDown := errors.New("server selection error: context deadline exceeded")

	tests := []struct {
		name          string
		subjectID     string
		readings      []schema.Reading
		fetchErr      error
		persistErr    error
		expectPersist bool
		wantSnapshot  *schema.Snapshot
		wantKind      schema.ErrorKind
	}{
		{
			name:          "should persist and return the snapshot",
			subjectID:     "42",
			readings:      readingsOf(42, 20.0, 25.0, 30.0),
			expectPersist: true,
			wantSnapshot:  &schema.Snapshot{SubjectID: "42", Max: 30, Min: 20, Avg: 25, ComputedAt: "2024-05-14 16:45:12"},
		},
		{
			name:         "should return no snapshot and no error without readings",
			subjectID:    "42",
			readings:     []schema.Reading{},
			wantSnapshot: nil,
		},
		{
			name:      "should stop on an invalid subject",
			subjectID: "abc",
			fetchErr:  schema.NewValidationError("abc", errors.New("invalid syntax")),
			wantKind:  schema.KindValidation,
		},
		{
			name:      "should stop when the readings store is unreachable",
			subjectID: "42",
			fetchErr:  schema.NewStoreUnavailableError("42", storeDown),
			wantKind:  schema.KindStoreUnavailable,
		},
		{
			name:      "should classify an unclassified fetch error",
			subjectID: "42",
			fetchErr:  storeDown,
			wantKind:  schema.KindStoreUnavailable,
		},
		{
			name:          "should fail when the snapshot store is unreachable",
			subjectID:     "42",
			readings:      readingsOf(42, 10.0),
			expectPersist: true,
			persistErr:    schema.NewPersistenceError("42", mongoDown),
			wantKind:      schema.KindPersistence,
		},
		{
			name:          "should classify an unclassified persist error",
			subjectID:     "42",
			readings:      readingsOf(42, 10.0),
			expectPersist: true,
			persistErr:    mongoDown,
			wantKind:      schema.KindPersistence,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			readingRepository := &MockReadingRepository{}
			readingRepository.On("FetchReadings", mock.Anything, tt.subjectID).Return(tt.readings, tt.fetchErr)
			snapshotRepository := &MockSnapshotRepository{}
			if tt.expectPersist {
				snapshotRepository.On("Persist", mock.Anything, mock.AnythingOfType("*schema.Snapshot")).Return(tt.persistErr)
			}

			a := newTestAnalytics(readingRepository, snapshotRepository)
			snapshot, err := a.Compute(common.TimeItContext(context.Background()), "trace1", tt.subjectID)

			if tt.wantKind != 0 {
				require.Error(t, err)
				assert.True(t, schema.IsKind(err, tt.wantKind), "unexpected error %v", err)
				assert.Nil(t, snapshot)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantSnapshot, snapshot)
			}
			readingRepository.AssertExpectations(t)
			snapshotRepository.AssertExpectations(t)
			if !tt.expectPersist {
				snapshotRepository.AssertNotCalled(t, "Persist", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestAnalytics_Compute_persistsOnEveryCall(t *testing.T) {
	readingRepository := &MockReadingRepository{}
	readingRepository.On("FetchReadings", mock.Anything, "42").Return(readingsOf(42, 20.0, 25.0, 30.0), nil)
	snapshotRepository := &MockSnapshotRepository{}
	snapshotRepository.On("Persist", mock.Anything, mock.AnythingOfType("*schema.Snapshot")).Return(nil)

	a := newTestAnalytics(readingRepository, snapshotRepository)
	first, err := a.Compute(context.Background(), "trace1", "42")
	require.NoError(t, err)
	second, err := a.Compute(context.Background(), "trace2", "42")
	require.NoError(t, err)

	snapshotRepository.AssertNumberOfCalls(t, "Persist", 2)
	assert.NotSame(t, first, second)
	assert.Equal(t, *first, *second)
}

func TestAnalytics_Compute_boundsStoreCalls(t *testing.T) {
	readingRepository := &MockReadingRepository{}
	readingRepository.On("FetchReadings", mock.Anything, "42").Return(readingsOf(42, 20.0), nil).Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		deadline, ok := ctx.Deadline()
		assert.True(t, ok, "store call must have a deadline")
		assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
	})
	snapshotRepository := &MockSnapshotRepository{}
	snapshotRepository.On("Persist", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		_, ok := args.Get(0).(context.Context).Deadline()
		assert.True(t, ok, "store call must have a deadline")
	})

	a := newTestAnalytics(readingRepository, snapshotRepository)
	_, err := a.Compute(context.Background(), "trace1", "42")
	assert.NoError(t, err)
}

func TestAnalytics_Compute_recordsTimers(t *testing.T) {
	readingRepository := &MockReadingRepository{}
	readingRepository.On("FetchReadings", mock.Anything, "42").Return(readingsOf(42, 20.0), nil)
	snapshotRepository := &MockSnapshotRepository{}
	snapshotRepository.On("Persist", mock.Anything, mock.Anything).Return(nil)

	ctx := common.TimeItContext(context.Background())
	a := newTestAnalytics(readingRepository, snapshotRepository)
	_, err := a.Compute(ctx, "trace1", "42")
	require.NoError(t, err)

	results := common.TimeResults(ctx)
	assert.Contains(t, results, "fetch:")
	assert.Contains(t, results, "persist:")
}

func TestAnalytics_Compute_linksSnapshotToResolvedUser(t *testing.T) {
	readingRepository := &MockReadingRepository{}
	readingRepository.On("FetchReadings", mock.Anything, " 7 ").Return(readingsOf(7, 36.5, 37.5), nil)
	snapshotRepository := &MockSnapshotRepository{}
	snapshotRepository.On("Persist", mock.Anything, mock.MatchedBy(func(snapshot *schema.Snapshot) bool {
		return snapshot.SubjectID == "7"
	})).Return(nil).Once()

	a := newTestAnalytics(readingRepository, snapshotRepository)
	snapshot, err := a.Compute(context.Background(), "trace1", " 7 ")

	require.NoError(t, err)
	assert.Equal(t, &schema.Snapshot{SubjectID: "7", Max: 37.5, Min: 36.5, Avg: 37, ComputedAt: "2024-05-14 16:45:12"}, snapshot)
	snapshotRepository.AssertExpectations(t)
}

func TestResolvedSubject(t *testing.T) {
	assert.Equal(t, "7", resolvedSubject(" 7 ", readingsOf(7, 1.0)))
	assert.Equal(t, "+12", resolvedSubject("+12", nil))
	assert.Equal(t, "9007199254740993", resolvedSubject("9007199254740993", readingsOf(9007199254740993, 1.0)))
}
