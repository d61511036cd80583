package services

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-splitter/internal/lib/smtp"
	"github.com/magabrotheeeer/subscription-splitter/internal/models"
)

type TransportMock struct{ mock.Mock }

func (m *TransportMock) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}
func (m *TransportMock) GetSMTPUser() string {
	return m.Called().String(0)
}

type ClientMock struct {
	mock.Mock
	buf bytes.Buffer
}

func (m *ClientMock) Mail(from string) error { return m.Called(from).Error(0) }
func (m *ClientMock) Rcpt(to string) error   { return m.Called(to).Error(0) }
func (m *ClientMock) Data() (io.WriteCloser, error) {
	args := m.Called()
	return nopWriteCloser{&m.buf}, args.Error(1)
}
func (m *ClientMock) Quit() error  { return m.Called().Error(0) }
func (m *ClientMock) Close() error { return m.Called().Error(0) }

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestSenderService_SendReminder(t *testing.T) {
	reminder := models.ReminderInfo{
		Email:            "bob@example.com",
		Username:         "bob",
		SubscriptionName: "Netflix",
		UnpaidPeriods:    3,
		TotalOwed:        "15.00",
	}
	body, err := json.Marshal(reminder)
	require.NoError(t, err)

	client := new(ClientMock)
	client.On("Mail", "noreply@example.com").Return(nil).Once()
	client.On("Rcpt", "bob@example.com").Return(nil).Once()
	client.On("Data").Return(nil, nil).Once()
	client.On("Quit").Return(nil).Once()
	client.On("Close").Return(nil).Once()

	transport := new(TransportMock)
	transport.On("GetSMTPUser").Return("noreply@example.com").Once()
	transport.On("Connect").Return(client, nil).Once()

	svc := NewSenderService(transport, newNoopLogger())
	err = svc.SendReminder(body)
	require.NoError(t, err)

	sent := client.buf.String()
	assert.Contains(t, sent, "To: bob@example.com")
	assert.Contains(t, sent, "Netflix")
	assert.Contains(t, sent, "15.00")
	transport.AssertExpectations(t)
	client.AssertExpectations(t)
}

func TestSenderService_SendReminder_BadPayload(t *testing.T) {
	svc := NewSenderService(new(TransportMock), newNoopLogger())
	err := svc.SendReminder([]byte("{not json"))
	assert.Error(t, err)
}
