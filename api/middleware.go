package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mdblp/analytics-service/auth"
	"github.com/mdblp/analytics-service/common"
	"github.com/sirupsen/logrus"
)

// TraceHeader optional request header carrying the caller trace id
const TraceHeader = "x-tidepool-trace-session"

// HandlerLoggerFunc expose our httpResponseWriter API
type HandlerLoggerFunc func(context.Context, *common.HttpResponseWriter) error

// middleware authenticate and log received requests
func (a *API) middleware(fn HandlerLoggerFunc, checkAuthentication bool) http.HandlerFunc {
	// The mux handler func:
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now().UTC()

		// It is recommended by go to get the request information before writing
		// So get theses now
		fields := logrus.Fields{
			"remoteAddr": r.RemoteAddr,
			"method":     r.Method,
			"url":        r.URL.String(),
			"proto":      r.Proto,
		}

		traceID := r.Header.Get(TraceHeader)
		if !common.IsValidUUID(traceID) {
			// We want a trace id, but for now we do not enforce it
			if traceID != "" {
				fields["invalidTrace"] = traceID
			}
			traceID = uuid.New().String()
		}
		fields["traceId"] = traceID

		// Make our context
		ctx := common.TimeItContext(r.Context())

		res := common.HttpResponseWriter{
			Header:     r.Header.Clone(), // Clone the header, to be sure
			URL:        r.URL,
			VARS:       mux.Vars(r),
			TraceID:    traceID,
			StatusCode: http.StatusOK, // Default status
			Err:        nil,
		}

		if checkAuthentication {
			td, err := a.authClient.Authenticate(r)
			if err != nil {
				unauthorized := common.ErrorUnauthorized.SetInternalMessage(err)
				res.WriteError(&unauthorized)
			} else {
				fields["subjectId"] = td.Subject
				ctx = auth.WithSubject(ctx, td.Subject)
			}
		}

		// Mainteners: No read from the request below this point!

		// Make the call to the API function if we can:
		if res.Err == nil {
			if err := fn(ctx, &res); err != nil {
				fields["handlerErr"] = err.Error()
			}
		}

		// We will send a JSON, so advertise it for all of our requests
		w.Header().Add("Content-Type", "application/json")
		w.WriteHeader(res.StatusCode)
		if _, err := w.Write([]byte(res.WriteBuffer.String())); err != nil {
			fields["writeErr"] = err.Error()
		}

		// Log errors management
		if res.Err != nil {
			if res.Err.Code != "" {
				fields["code"] = res.Err.Code
			}
			if res.Err.InternalMessage != "" {
				fields["err"] = res.Err.InternalMessage
			}
		}

		if timerResults := common.TimeResults(ctx); len(timerResults) > 0 {
			fields["timers"] = timerResults
		}
		fields["status"] = res.StatusCode
		fields["durationMs"] = time.Since(start).Milliseconds()
		fields["size"] = res.Size

		entry := a.logger.WithFields(fields)
		if res.StatusCode >= http.StatusInternalServerError {
			entry.Error("request failed")
		} else if res.StatusCode >= http.StatusBadRequest {
			entry.Warn("request rejected")
		} else {
			entry.Info("request served")
		}
	}
}
