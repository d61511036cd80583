package owed

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
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-splitter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-splitter/internal/lib/billing"
	billingservice "github.com/magabrotheeeer/subscription-splitter/internal/services/billing"
)

// MockService реализует интерфейс owed.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) GetStatement(ctx context.Context, subscriptionID int, username string, asOf time.Time) (*billing.Statement, error) {
	args := m.Called(ctx, subscriptionID, username, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Statement), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newRequest(t *testing.T, url, username string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "7")
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if username != "" {
		ctx = context.WithValue(ctx, middlewarectx.User, username)
	}
	return req.WithContext(ctx)
}

func TestOwedHandler(t *testing.T) {
	price := decimal.RequireFromString("5.00")
	statement := &billing.Statement{
		UnpaidPeriods: 3,
		TotalOwed:     decimal.RequireFromString("15.00"),
		Breakdown: []billing.PeriodCharge{
			{DueDate: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), UnitPrice: &price},
			{DueDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), UnitPrice: &price},
			{DueDate: time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), UnitPrice: &price},
		},
	}

	tests := []struct {
		name           string
		url            string
		username       string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:     "выписка на сегодня",
			url:      "/subscriptions/7/debt",
			username: "bob",
			setupMock: func(m *MockService) {
				m.On("GetStatement", mock.Anything, 7, "bob", time.Time{}).
					Return(statement, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"total_owed":"15.00"`,
		},
		{
			name:     "выписка на дату",
			url:      "/subscriptions/7/debt?as_of=2024-04-20",
			username: "bob",
			setupMock: func(m *MockService) {
				m.On("GetStatement", mock.Anything, 7, "bob",
					time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)).
					Return(statement, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"unpaid_periods":3`,
		},
		{
			name:           "некорректная дата",
			url:            "/subscriptions/7/debt?as_of=20.04.2024",
			username:       "bob",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `as_of must be a date`,
		},
		{
			name:     "не участник",
			url:      "/subscriptions/7/debt",
			username: "mallory",
			setupMock: func(m *MockService) {
				m.On("GetStatement", mock.Anything, 7, "mallory", time.Time{}).
					Return(nil, billingservice.ErrNotMember).Once()
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `not a member`,
		},
		{
			name:     "некорректная конфигурация",
			url:      "/subscriptions/7/debt",
			username: "bob",
			setupMock: func(m *MockService) {
				m.On("GetStatement", mock.Anything, 7, "bob", time.Time{}).
					Return(nil, billing.ErrInvalidConfiguration).Once()
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `invalid billing configuration`,
		},
		{
			name:           "нет пользователя в контексте",
			url:            "/subscriptions/7/debt",
			username:       "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `unauthorized`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(newNoopLogger(), mockService)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, newRequest(t, tt.url, tt.username))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}
