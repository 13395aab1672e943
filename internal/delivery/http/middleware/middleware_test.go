package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"streetsearch/config"
	deliverycontext "streetsearch/internal/delivery/context"
	"streetsearch/internal/delivery/http/response"
	domainerrors "streetsearch/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()

	return e.NewContext(httptest.NewRequest(method, target, nil), rec), rec
}

func TestErrorMiddleware_HandleHTTPError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantDetails bool
	}{
		{
			name:        "app error",
			err:         errors.Wrap(domainerrors.ErrSnapDistanceExceeded.WithDetails("900 m"), "plan trip"),
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    "SNAP_DISTANCE_EXCEEDED",
			wantDetails: true,
		},
		{
			name:       "echo error",
			err:        echo.NewHTTPError(http.StatusNotFound, "no such route"),
			wantStatus: http.StatusNotFound,
			wantCode:   "HTTP_ERROR",
		},
		{
			name:       "unknown error",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			m := NewErrorMiddleware(slog.New(slog.NewJSONHandler(&logs, nil)))

			c, rec := newContext(http.MethodGet, "/v1/routes/plan")
			m.HandleHTTPError(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body response.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantDetails, body.Error.Details != nil)
			assert.NotContains(t, body.Error.Message, "disk on fire", "internal details stay in the logs")

			if tt.wantStatus >= http.StatusInternalServerError {
				assert.Contains(t, logs.String(), "disk on fire")
			}
		})
	}
}

func TestErrorMiddleware_SkipsCommittedResponse(t *testing.T) {
	m := NewErrorMiddleware(slog.Default())

	c, rec := newContext(http.MethodGet, "/health")
	require.NoError(t, c.NoContent(http.StatusAccepted))

	m.HandleHTTPError(errors.New("late failure"), c)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestRequestIDMiddleware_Process(t *testing.T) {
	var logs bytes.Buffer
	m := NewRequestIDMiddleware(slog.New(slog.NewJSONHandler(&logs, nil)))

	var seenID string
	handler := m.Process(func(c echo.Context) error {
		seenID = deliverycontext.GetRequestIDFromContext(c.Request().Context())
		deliverycontext.GetLoggerOrDefault(c.Request().Context(), nil).Info("inside handler")

		return c.NoContent(http.StatusOK)
	})

	c, rec := newContext(http.MethodGet, "/health")
	c.Request().Header.Set(deliverycontext.HeaderXRequestID, "abc-123")
	require.NoError(t, handler(c))

	assert.Equal(t, "abc-123", seenID)
	assert.Equal(t, "abc-123", rec.Header().Get(deliverycontext.HeaderXRequestID))
	assert.Contains(t, logs.String(), `"request_id":"abc-123"`)
}

func TestLoggerMiddleware_Handle(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m := NewLoggerMiddleware(logger, &config.Config{})

	e := echo.New()
	e.HTTPErrorHandler = NewErrorMiddleware(logger).HandleHTTPError

	handler := m.Handle(func(echo.Context) error {
		return domainerrors.ErrEngineNotReady
	})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/v1/routes/plan", nil), rec)
	require.NoError(t, handler(c), "the error is handled inside the middleware")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, logs.String(), `"level":"ERROR"`)
	assert.Contains(t, logs.String(), `"status":503`)
}
