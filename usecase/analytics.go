package usecase

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/mdblp/analytics-service/common"
	"github.com/mdblp/analytics-service/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

// Outcomes recorded by the computations counter
const (
	OutcomeSuccess = "success"
	OutcomeNoData  = "no_data"
	OutcomeFailure = "failure"
)

var computationsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name:      "computations_total",
	Help:      "Number of analytics computations by outcome",
	Subsystem: "analytics",
	Namespace: "dblp",
}, []string{"outcome"})

var readingsPerComputation = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:      "readings_per_computation",
	Help:      "A histogram of the number of readings aggregated by one computation",
	Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	Subsystem: "analytics",
	Namespace: "dblp",
})

var storeTimer = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:      "store_time",
	Help:      "A histogram for store calls execution time (ms)",
	Buckets:   prometheus.LinearBuckets(20, 20, 50),
	Subsystem: "analytics",
	Namespace: "dblp",
}, []string{"stage"})

// Analytics read, aggregate and persist pipeline
type Analytics struct {
	logger       *logrus.Logger
	readings     ReadingRepository
	snapshots    SnapshotRepository
	storeTimeout time.Duration
	now          func() time.Time
}

// NewAnalytics storeTimeout bounds every store call, 0 means no bound other than the request context
func NewAnalytics(logger *logrus.Logger, readings ReadingRepository, snapshots SnapshotRepository, storeTimeout time.Duration) *Analytics {
	return &Analytics{
		logger:       logger,
		readings:     readings,
		snapshots:    snapshots,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
}

// Compute runs the pipeline for subjectID.
//
// A nil snapshot with a nil error means the subject has no readings.
// Errors are *schema.PipelineError.
func (a *Analytics) Compute(ctx context.Context, traceID string, subjectID string) (*schema.Snapshot, error) {
	log := a.logger.WithFields(logrus.Fields{"traceId": traceID, "subjectId": subjectID})

	log.WithField("stage", schema.StageFetch).Debug("fetching readings")
	readings, err := a.fetch(ctx, subjectID)
	if err != nil {
		return nil, a.fail(log, schema.StageFetch, subjectID, err)
	}
	log.WithFields(logrus.Fields{"stage": schema.StageAggregate, "readings": len(readings)}).Debug("aggregating readings")

	// The snapshot is linked to the user id the readings were selected with
	resolvedID := resolvedSubject(subjectID, readings)
	if resolvedID != subjectID {
		log = log.WithField("userId", resolvedID)
	}
	snapshot := Aggregate(resolvedID, schema.Values(readings), a.now())
	if snapshot == nil {
		log.WithField("stage", schema.StageAggregate).Info("no temperature data available")
		computationsCounter.WithLabelValues(OutcomeNoData).Inc()
		return nil, nil
	}
	readingsPerComputation.Observe(float64(len(readings)))

	log.WithField("stage", schema.StagePersist).Debug("persisting snapshot")
	if err := a.persist(ctx, snapshot); err != nil {
		return nil, a.fail(log, schema.StagePersist, resolvedID, err)
	}

	log.WithFields(logrus.Fields{
		"stage":      schema.StagePersist,
		"max":        snapshot.Max,
		"min":        snapshot.Min,
		"avg":        snapshot.Avg,
		"computedAt": snapshot.ComputedAt,
	}).Info("analytics computed")
	computationsCounter.WithLabelValues(OutcomeSuccess).Inc()
	return snapshot, nil
}

// resolvedSubject the canonical user id of the readings, subjectID when there is none
func resolvedSubject(subjectID string, readings []schema.Reading) string {
	if len(readings) == 0 {
		return subjectID
	}
	return strconv.FormatInt(readings[0].SubjectID, 10)
}

func (a *Analytics) fetch(ctx context.Context, subjectID string) ([]schema.Reading, error) {
	storeCtx, cancel := a.storeContext(ctx)
	defer cancel()
	common.TimeIt(ctx, schema.StageFetch)
	start := time.Now()
	readings, err := a.readings.FetchReadings(storeCtx, subjectID)
	storeTimer.WithLabelValues(schema.StageFetch).Observe(float64(time.Since(start).Milliseconds()))
	common.TimeEnd(ctx, schema.StageFetch)
	return readings, err
}

func (a *Analytics) persist(ctx context.Context, snapshot *schema.Snapshot) error {
	storeCtx, cancel := a.storeContext(ctx)
	defer cancel()
	common.TimeIt(ctx, schema.StagePersist)
	start := time.Now()
	err := a.snapshots.Persist(storeCtx, snapshot)
	storeTimer.WithLabelValues(schema.StagePersist).Observe(float64(time.Since(start).Milliseconds()))
	common.TimeEnd(ctx, schema.StagePersist)
	return err
}

func (a *Analytics) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.storeTimeout)
}

// fail logs err and makes sure the caller gets a PipelineError
func (a *Analytics) fail(log *logrus.Entry, stage string, subjectID string, err error) error {
	var pErr *schema.PipelineError
	if !errors.As(err, &pErr) {
		// Repositories are expected to classify their errors
		if stage == schema.StagePersist {
			err = schema.NewPersistenceError(subjectID, err)
		} else {
			err = schema.NewStoreUnavailableError(subjectID, err)
		}
		errors.As(err, &pErr)
	}
	log.WithFields(logrus.Fields{
		"stage": pErr.Stage,
		"kind":  pErr.Kind.String(),
		"cause": pErr.Err,
	}).Error("analytics computation failed")
	computationsCounter.WithLabelValues(OutcomeFailure).Inc()
	return err
}
