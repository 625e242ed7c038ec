package schema

import "time"

// ComputedAtLayout is the format of Snapshot.ComputedAt (local time, no zone, no sub-second)
const ComputedAtLayout = "2006-01-02 15:04:05"

// Snapshot summary statistics of one analytics computation.
//
// SubjectID is persisted with the document but is not part of the API response.
type Snapshot struct {
	SubjectID  string  `json:"-" bson:"subject_id"`
	Max        float64 `json:"max" bson:"max"`
	Min        float64 `json:"min" bson:"min"`
	Avg        float64 `json:"avg" bson:"avg"`
	ComputedAt string  `json:"computed_at" bson:"computed_at"`
}

// FormatComputedAt formats t in the process local time zone
func FormatComputedAt(t time.Time) string {
	return t.Local().Format(ComputedAtLayout)
}
