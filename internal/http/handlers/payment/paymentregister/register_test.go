package paymentregister

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-splitter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-splitter/internal/models"
	paymentservice "github.com/magabrotheeeer/subscription-splitter/internal/services/payment"
)

// MockService реализует интерфейс paymentregister.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, subscriptionID int, username string, req models.DummyPayment) (int, time.Time, error) {
	args := m.Called(ctx, subscriptionID, username, req)
	return args.Int(0), args.Get(1).(time.Time), args.Error(2)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newRequest(t *testing.T, body, username string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/subscriptions/7/payments", strings.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "7")
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if username != "" {
		ctx = context.WithValue(ctx, middlewarectx.User, username)
	}
	return req.WithContext(ctx)
}

func TestPaymentRegisterHandler(t *testing.T) {
	newLast := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		body           string
		username       string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:     "успешная регистрация платежа",
			body:     `{"amount":"5.00","periods":1,"paid_at":"2024-02-10"}`,
			username: "bob",
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, 7, "bob",
					models.DummyPayment{Amount: "5.00", Periods: 1, PaidAt: "2024-02-10"}).
					Return(77, newLast, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"last_payment_date":"2024-02-29"`,
		},
		{
			name:           "нулевое число периодов",
			body:           `{"amount":"5.00","periods":0}`,
			username:       "bob",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `Periods`,
		},
		{
			name:     "не участник",
			body:     `{"amount":"5.00","periods":1}`,
			username: "mallory",
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, 7, "mallory", mock.Anything).
					Return(0, time.Time{}, paymentservice.ErrNotMember).Once()
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `not a member`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(newNoopLogger(), mockService)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, newRequest(t, tt.body, tt.username))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}
