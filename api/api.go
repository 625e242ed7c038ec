package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mdblp/analytics-service/auth"
	"github.com/mdblp/analytics-service/common"
	"github.com/mdblp/analytics-service/usecase"
	"github.com/sirupsen/logrus"
	"github.com/tidepool-org/go-common/clients/status"
)

type (
	// API struct for analytics-service
	API struct {
		analytics   AnalyticsUseCase
		stores      []NamedStore
		authClient  auth.ClientInterface
		logger      *logrus.Logger
		pingTimeout time.Duration
	}

	// NamedStore a store checked by the status route
	NamedStore struct {
		Name  string
		Store usecase.Pinger
	}
)

var (
	errorStatusCheck   = common.DetailedError{Status: http.StatusInternalServerError, Code: "data_status_check", Message: "checking of the status endpoint showed an error"}
	errorLoadingStatus = common.DetailedError{Status: http.StatusInternalServerError, Code: "json_marshal_error", Message: "internal server error"}
)

func InitAPI(analytics AnalyticsUseCase, authClient auth.ClientInterface, logger *logrus.Logger, pingTimeout time.Duration, stores ...NamedStore) *API {
	return &API{
		analytics:   analytics,
		stores:      stores,
		authClient:  authClient,
		logger:      logger,
		pingTimeout: pingTimeout,
	}
}

// SetHandlers set the API routes
func (a *API) SetHandlers(prefix string, rtr *mux.Router) {
	rtr.HandleFunc(prefix+"/compute_analytics", a.middleware(a.computeAnalytics, true)).Methods(http.MethodGet)
	rtr.HandleFunc(prefix+"/status", a.getStatus).Methods(http.MethodGet)
}

// @Summary Get the api status
// @Description Get the api status, ping every store
// @ID analytics-service-api-getstatus
// @Produce json
// @Success 200 {object} status.ApiStatus
// @Failure 500 {object} status.ApiStatus
// @Router /status [get]
func (a *API) getStatus(res http.ResponseWriter, req *http.Request) {
	start := time.Now()
	s := status.NewApiStatus(http.StatusOK, "OK")
	if err := a.pingStores(req.Context()); err != nil {
		errorLog := errorStatusCheck.SetInternalMessage(err)
		a.logError(&errorLog, start)
		s = status.NewApiStatus(errorLog.Status, err.Error())
	}
	if jsonDetails, err := json.Marshal(s); err != nil {
		a.jsonError(res, errorLoadingStatus.SetInternalMessage(err), start)
	} else {
		res.Header().Add("content-type", "application/json")
		res.WriteHeader(s.Status.Code)
		res.Write(jsonDetails)
	}
}

func (a *API) pingStores(ctx context.Context) error {
	if a.pingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.pingTimeout)
		defer cancel()
	}
	for _, s := range a.stores {
		if err := s.Store.Ping(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.Name, err)
		}
	}
	return nil
}

// log error detail and write as application/json
func (a *API) jsonError(res http.ResponseWriter, err common.DetailedError, startedAt time.Time) {
	a.logError(&err, startedAt)
	jsonErr, _ := json.Marshal(err)

	res.Header().Add("content-type", "application/json")
	res.WriteHeader(err.Status)
	res.Write(jsonErr)
}

func (a *API) logError(err *common.DetailedError, startedAt time.Time) {
	err.ID = uuid.New().String()
	a.logger.WithFields(logrus.Fields{
		"errorId":  err.ID,
		"code":     err.Code,
		"duration": time.Since(startedAt).Seconds(),
		"err":      err.InternalMessage,
	}).Error(err.Message)
}
