package schema

// Reading is one temperature measurement of a subject, as stored in the
// `temperatures` table. The source timestamp is not read.
type Reading struct {
	SubjectID int64   `db:"user_id"`
	Value     float64 `db:"temperature"`
}

// Values returns the measured values, in the order they were read
func Values(readings []Reading) []float64 {
	values := make([]float64, len(readings))
	for i, r := range readings {
		values[i] = r.Value
	}
	return values
}
