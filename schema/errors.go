package schema

import (
	"errors"
	"fmt"
)

// ErrorKind discriminates the failures of the analytics pipeline
type ErrorKind int

const (
	// KindValidation the subject identifier is not an integer
	KindValidation ErrorKind = iota + 1
	// KindStoreUnavailable the readings store could not be queried
	KindStoreUnavailable
	// KindPersistence the snapshot could not be written
	KindPersistence
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindStoreUnavailable:
		return "store_unavailable"
	case KindPersistence:
		return "persistence"
	}
	return "unknown"
}

// Pipeline stages
const (
	StageResolve   = "resolve"
	StageFetch     = "fetch"
	StageAggregate = "aggregate"
	StagePersist   = "persist"
)

// PipelineError failure of one stage of the analytics pipeline
type PipelineError struct {
	Kind      ErrorKind
	Stage     string
	SubjectID string
	Err       error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s failed for subject [%s] (%s): %v", e.Stage, e.SubjectID, e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func NewValidationError(subjectID string, err error) error {
	return &PipelineError{Kind: KindValidation, Stage: StageFetch, SubjectID: subjectID, Err: err}
}

func NewStoreUnavailableError(subjectID string, err error) error {
	return &PipelineError{Kind: KindStoreUnavailable, Stage: StageFetch, SubjectID: subjectID, Err: err}
}

func NewPersistenceError(subjectID string, err error) error {
	return &PipelineError{Kind: KindPersistence, Stage: StagePersist, SubjectID: subjectID, Err: err}
}

// KindOf returns the kind of the first PipelineError in err's chain
func KindOf(err error) (ErrorKind, bool) {
	var pErr *PipelineError
	if errors.As(err, &pErr) {
		return pErr.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is a PipelineError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
