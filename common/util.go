package common

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type TimeItKey int

type TimeItType struct {
	mu      sync.Mutex
	timers  map[string]time.Time
	results string
}

// IsValidUUID check if the uuid is valid
func IsValidUUID(u string) bool {
	_, err := uuid.Parse(u)
	return err == nil
}

func timeItValue(ctx context.Context) *TimeItType {
	value, _ := ctx.Value(TimeItKey(0)).(*TimeItType)
	return value
}

// TimeItContext returns a context able to record named timers, see TimeIt and TimeEnd
func TimeItContext(ctx context.Context) context.Context {
	value := &TimeItType{
		timers: make(map[string]time.Time),
	}
	return context.WithValue(ctx, TimeItKey(0), value)
}

// TimeIt starts the timer name. No-op on a context without timers.
func TimeIt(ctx context.Context, name string) {
	ctxValue := timeItValue(ctx)
	if ctxValue == nil {
		return
	}
	ctxValue.mu.Lock()
	defer ctxValue.mu.Unlock()
	if _, present := ctxValue.timers[name]; present {
		return
	}
	ctxValue.timers[name] = time.Now()
}

// TimeEnd stops the timer name and returns its duration in ms
func TimeEnd(ctx context.Context, name string) int64 {
	ctxValue := timeItValue(ctx)
	if ctxValue == nil {
		return 0
	}
	ctxValue.mu.Lock()
	defer ctxValue.mu.Unlock()
	start, present := ctxValue.timers[name]
	if !present {
		return 0
	}
	delete(ctxValue.timers, name)
	dur := time.Since(start).Milliseconds()
	if len(ctxValue.results) == 0 {
		ctxValue.results = fmt.Sprintf("%s:%dms", name, dur)
	} else {
		ctxValue.results = fmt.Sprintf("%s %s:%dms", ctxValue.results, name, dur)
	}
	return dur
}

func TimeResults(ctx context.Context) string {
	ctxValue := timeItValue(ctx)
	if ctxValue == nil {
		return ""
	}
	ctxValue.mu.Lock()
	defer ctxValue.mu.Unlock()
	return ctxValue.results
}
