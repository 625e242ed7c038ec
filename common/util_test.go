package common

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidUUID(t *testing.T) {
	assert.True(t, IsValidUUID("0b6f2e6a-6ec6-4f3a-9b8b-2d0d8f7a4a11"))
	assert.False(t, IsValidUUID("not-a-uuid"))
	assert.False(t, IsValidUUID(""))
}

func TestTimeIt(t *testing.T) {
	ctx := TimeItContext(context.Background())
	TimeIt(ctx, "fetch")
	TimeEnd(ctx, "fetch")
	TimeIt(ctx, "persist")
	TimeEnd(ctx, "persist")

	results := TimeResults(ctx)
	assert.True(t, strings.HasPrefix(results, "fetch:"), results)
	assert.Contains(t, results, " persist:")
}

func TestTimeIt_withoutTimers(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		TimeIt(ctx, "fetch")
		assert.Equal(t, int64(0), TimeEnd(ctx, "fetch"))
		assert.Equal(t, "", TimeResults(ctx))
	})
}

func TestTimeEnd_notStarted(t *testing.T) {
	ctx := TimeItContext(context.Background())
	assert.Equal(t, int64(0), TimeEnd(ctx, "unknown"))
	assert.Equal(t, "", TimeResults(ctx))
}

func TestHttpResponseWriter_WriteError(t *testing.T) {
	res := HttpResponseWriter{TraceID: "trace1", StatusCode: http.StatusOK}
	res.WriteString("partial")

	detailed := DetailedError{Status: http.StatusInternalServerError, Code: "reading_store_error", Message: "internal server error"}
	detailed = detailed.SetInternalMessage(errors.New("dial tcp: connection refused"))
	assert.NoError(t, res.WriteError(&detailed))

	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.JSONEq(t, `{"status":500,"id":"trace1","code":"reading_store_error","error":"internal server error"}`, res.WriteBuffer.String())
	assert.Equal(t, res.WriteBuffer.Len(), res.Size)
	assert.Equal(t, "dial tcp: connection refused", res.Err.InternalMessage)
}

func TestHttpResponseWriter_WriteErrorNil(t *testing.T) {
	res := HttpResponseWriter{TraceID: "trace1"}
	assert.NoError(t, res.WriteError(nil))
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, "unknown_error", res.Err.Code)
}

func TestHttpResponseWriter_WriteJSON(t *testing.T) {
	res := HttpResponseWriter{TraceID: "trace1"}
	assert.NoError(t, res.WriteJSON(http.StatusNotFound, Message{Message: "No temperature data available"}))
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.JSONEq(t, `{"message":"No temperature data available"}`, res.WriteBuffer.String())
	assert.Nil(t, res.Err)
}

func TestHttpResponseWriter_WriteJSONMarshalError(t *testing.T) {
	res := HttpResponseWriter{TraceID: "trace1"}
	assert.NoError(t, res.WriteJSON(http.StatusOK, make(chan int)))
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, "write_error", res.Err.Code)
}
