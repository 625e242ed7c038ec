package usecase

import (
	"time"

	"github.com/mdblp/analytics-service/schema"
)

// Aggregate computes the summary statistics of values at the given time.
//
// It returns nil when values is empty. values is not modified.
func Aggregate(subjectID string, values []float64, at time.Time) *schema.Snapshot {
	if len(values) == 0 {
		return nil
	}
	highest := values[0]
	lowest := values[0]
	sum := 0.0
	for _, v := range values {
		if v > highest {
			highest = v
		}
		if v < lowest {
			lowest = v
		}
		sum += v
	}
	avg := sum / float64(len(values))
	// Rounding of the sum may push the mean slightly out of range,
	// e.g. three times 0.1.
	if avg > highest {
		avg = highest
	} else if avg < lowest {
		avg = lowest
	}
	return &schema.Snapshot{
		SubjectID:  subjectID,
		Max:        highest,
		Min:        lowest,
		Avg:        avg,
		ComputedAt: schema.FormatComputedAt(at),
	}
}
