package api

import (
	"context"
	"net/http"

	"github.com/mdblp/analytics-service/auth"
	"github.com/mdblp/analytics-service/common"
	"github.com/mdblp/analytics-service/schema"
)

// NoDataMessage body of the response when the subject has no readings
const NoDataMessage = "No temperature data available"

var (
	errorInvalidSubject = common.DetailedError{Status: http.StatusInternalServerError, Code: "invalid_subject", Message: "invalid subject identifier"}
	errorReadingStore   = common.DetailedError{Status: http.StatusInternalServerError, Code: "reading_store_error", Message: "unable to read temperature data"}
	errorSnapshotStore  = common.DetailedError{Status: http.StatusInternalServerError, Code: "snapshot_store_error", Message: "unable to save analytics"}
	errorInternal       = common.DetailedError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "internal server error"}
)

// detailedErrorFor maps a pipeline failure to the error returned to the client
func detailedErrorFor(err error) common.DetailedError {
	kind, _ := schema.KindOf(err)
	switch kind {
	case schema.KindValidation:
		return errorInvalidSubject.SetInternalMessage(err)
	case schema.KindStoreUnavailable:
		return errorReadingStore.SetInternalMessage(err)
	case schema.KindPersistence:
		return errorSnapshotStore.SetInternalMessage(err)
	}
	return errorInternal.SetInternalMessage(err)
}

// @Summary Compute the temperature analytics of the authenticated user
// @Description Read the user temperatures, compute max, min and average, save and return them
// @ID analytics-service-compute
// @Produce json
// @Success 200 {object} schema.Snapshot
// @Failure 401 {object} common.DetailedError
// @Failure 404 {object} common.Message
// @Failure 500 {object} common.DetailedError
// @Param x-tidepool-trace-session header string false "Trace session uuid" format(uuid)
// @Security JWT
// @Router /compute_analytics [get]
func (a *API) computeAnalytics(ctx context.Context, res *common.HttpResponseWriter) error {
	subjectID, ok := auth.SubjectFromContext(ctx)
	if !ok {
		unauthorized := common.ErrorUnauthorized
		return res.WriteError(&unauthorized)
	}

	snapshot, err := a.analytics.Compute(ctx, res.TraceID, subjectID)
	if err != nil {
		detailedErr := detailedErrorFor(err)
		return res.WriteError(&detailedErr)
	}
	if snapshot == nil {
		return res.WriteJSON(http.StatusNotFound, common.Message{Message: NoDataMessage})
	}
	return res.WriteJSON(http.StatusOK, snapshot)
}
