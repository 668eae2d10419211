package shared

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceID(t *testing.T) {
	t.Parallel()

	assert.Empty(t, GetTraceID(context.Background()))

	ctx := SetTraceID(context.Background())
	id := GetTraceID(ctx)
	require.Len(t, id, 2*TraceIDLength)
	_, err := hex.DecodeString(id)
	assert.NoError(t, err)

	assert.NotEqual(t, id, GetTraceID(SetTraceID(context.Background())))
	assert.Equal(t, "abcd-1234-ef", GetTraceID(WithTraceID(context.Background(), "abcd-1234-ef")))
	assert.Len(t, GetTraceID(WithTraceID(context.Background(), "x")), 2*TraceIDLength)
	assert.Empty(t, GetTraceID(context.WithValue(context.Background(), TraceIDKey, 42)))
}

func TestUserID(t *testing.T) {
	t.Parallel()

	_, ok := GetUserID(context.Background())
	assert.False(t, ok)

	_, ok = GetUserID(WithUserID(context.Background(), uuid.Nil))
	assert.False(t, ok)

	id := uuid.New()
	got, ok := GetUserID(WithUserID(context.Background(), id))
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

type sampleRequest struct {
	Name         string `json:"name"          validate:"required"`
	ReminderTime string `json:"reminder_time" validate:"omitempty,max=5"`
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr error
		errText string
	}{
		{name: "valid", body: `{"name":"x"}`},
		{name: "empty", body: "", wantErr: ErrEmptyBody},
		{name: "syntax error", body: `{"name":`, errText: "unexpected EOF"},
		{name: "unknown field", body: `{"name":"x","extra":1}`, errText: "unknown field"},
		{name: "trailing data", body: `{"name":"x"}{"name":"y"}`, errText: "unexpected data"},
		{name: "too large", body: `{"name":"` + strings.Repeat("a", MaxRequestBodyBytes) + `"}`, errText: "too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body))
			var v sampleRequest
			err := DecodeJSON(httptest.NewRecorder(), req, &v)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
			default:
				require.NoError(t, err)
				assert.Equal(t, "x", v.Name)
			}
		})
	}
}

func TestValidateRequestUsesJSONNames(t *testing.T) {
	t.Parallel()

	err := ValidateRequest(&sampleRequest{Name: "x", ReminderTime: "too long"})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "reminder_time", verrs[0].Field())

	assert.NoError(t, ValidateRequest(&sampleRequest{Name: "x"}))
}

func TestRespondWithErrorAndLog(t *testing.T) {
	t.Parallel()

	buf, log := logger.NewTestLogger(t)
	ctx := logger.WithLogger(WithTraceID(context.Background(), "trace-12345678"), log)
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	RespondWithErrorAndLog(rec, req, http.StatusInternalServerError, "Failed to list tasks",
		errors.New("dial postgres://todo:s3cret@db:5432/todo failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Failed to list tasks","trace_id":"trace-12345678"}`, rec.Body.String())

	logs := buf.String()
	assert.Contains(t, logs, `"level":"ERROR"`)
	assert.Contains(t, logs, "trace-12345678")
	assert.NotContains(t, logs, "s3cret")
}

func TestRespondWithErrorLogLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		opts   []ResponseOption
		want   string
	}{
		{"client error", http.StatusBadRequest, nil, `"level":"DEBUG"`},
		{"elevated client error", http.StatusUnauthorized, []ResponseOption{WithElevatedLogLevel()}, `"level":"WARN"`},
		{"rate limited", http.StatusTooManyRequests, nil, `"level":"WARN"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, log := logger.NewTestLogger(t)
			req := httptest.NewRequest(http.MethodGet, "/", nil).
				WithContext(logger.WithLogger(context.Background(), log))

			RespondWithErrorAndLog(httptest.NewRecorder(), req, tt.status, "msg", nil, tt.opts...)

			assert.Contains(t, buf.String(), tt.want)
		})
	}
}
