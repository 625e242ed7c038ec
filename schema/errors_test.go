package schema

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("connection refused")
	tests := []struct {
		name     string
		err      error
		wantKind ErrorKind
		wantOk   bool
	}{
		{name: "validation", err: NewValidationError("abc", cause), wantKind: KindValidation, wantOk: true},
		{name: "store unavailable", err: NewStoreUnavailableError("1", cause), wantKind: KindStoreUnavailable, wantOk: true},
		{name: "persistence", err: NewPersistenceError("1", cause), wantKind: KindPersistence, wantOk: true},
		{name: "wrapped", err: fmt.Errorf("compute: %w", NewPersistenceError("1", cause)), wantKind: KindPersistence, wantOk: true},
		{name: "plain error", err: cause, wantOk: false},
		{name: "nil", err: nil, wantOk: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := KindOf(tt.err)
			assert.Equal(t, tt.wantOk, ok)
			if tt.wantOk {
				assert.Equal(t, tt.wantKind, kind)
				assert.True(t, IsKind(tt.err, tt.wantKind))
			}
		})
	}
}

func TestPipelineError_unwrap(t *testing.T) {
	err := NewStoreUnavailableError("1", context.DeadlineExceeded)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, "fetch failed for subject [1] (store_unavailable): context deadline exceeded", err.Error())
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "store_unavailable", KindStoreUnavailable.String())
	assert.Equal(t, "persistence", KindPersistence.String())
	assert.Equal(t, "unknown", ErrorKind(0).String())
}
