package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/rezervo-app/rezervo-backend/internal/models"
	"github.com/rezervo-app/rezervo-backend/internal/storage"
)

type fakeTwilioAPI struct {
	createErr  error
	twilioCode *int
	lastParams *twilioApi.CreateMessageParams
	balanceErr error
}

func (f *fakeTwilioAPI) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.lastParams = params
	if f.createErr != nil {
		return nil, f.createErr
	}
	sid := "SM0123456789"
	msg := &twilioApi.ApiV2010Message{Sid: &sid}
	if f.twilioCode != nil {
		errMsg := "unreachable destination"
		msg.ErrorCode = f.twilioCode
		msg.ErrorMessage = &errMsg
	}
	return msg, nil
}

func (f *fakeTwilioAPI) FetchBalance(params *twilioApi.FetchBalanceParams) (*twilioApi.ApiV2010Balance, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	balance, currency := "42.00", "USD"
	return &twilioApi.ApiV2010Balance{Balance: &balance, Currency: &currency}, nil
}

func newTestWhatsApp(api twilioAPI) (*WhatsAppService, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	return &WhatsAppService{
		api:   api,
		from:  "whatsapp:+14155238886",
		store: store,
	}, store
}

func TestSendMessageSuccessLogsSent(t *testing.T) {
	api := &fakeTwilioAPI{}
	svc, store := newTestWhatsApp(api)

	result := svc.SendMessage(SendRequest{
		To:          "05551234567",
		Message:     "hello",
		MessageType: models.WhatsAppTypeOTP,
		BusinessID:  "B1",
	})

	require.True(t, result.Success)
	assert.Equal(t, "SM0123456789", result.MessageID)
	require.NotNil(t, api.lastParams)
	assert.Equal(t, "whatsapp:+905551234567", *api.lastParams.To)

	logs := store.WhatsAppLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, models.WhatsAppStatusSent, logs[0].Status)
	assert.Equal(t, "905551234567", logs[0].Phone)
	assert.Equal(t, "SM0123456789", logs[0].TwilioMessageID)
	assert.Empty(t, logs[0].ErrorMessage)
}

func TestSendMessageFailureLogsFailed(t *testing.T) {
	api := &fakeTwilioAPI{createErr: errors.New("twilio down")}
	svc, store := newTestWhatsApp(api)

	result := svc.SendMessage(SendRequest{
		To:          "05551234567",
		Message:     "hello",
		MessageType: models.WhatsAppTypeReminder,
		BusinessID:  "B1",
	})

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "twilio down")

	logs := store.WhatsAppLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, models.WhatsAppStatusFailed, logs[0].Status)
	assert.Contains(t, logs[0].ErrorMessage, "twilio down")
	assert.Empty(t, logs[0].TwilioMessageID)
}

func TestSendMessageProviderErrorCode(t *testing.T) {
	code := 63024
	api := &fakeTwilioAPI{twilioCode: &code}
	svc, store := newTestWhatsApp(api)

	result := svc.SendMessage(SendRequest{
		To:          "05551234567",
		Message:     "hello",
		MessageType: models.WhatsAppTypeApproval,
	})

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "63024")

	logs := store.WhatsAppLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, models.WhatsAppStatusFailed, logs[0].Status)
}

func TestCheckAccountStatus(t *testing.T) {
	svc, _ := newTestWhatsApp(&fakeTwilioAPI{})
	assert.NoError(t, svc.CheckAccountStatus())

	svc, _ = newTestWhatsApp(&fakeTwilioAPI{balanceErr: errors.New("auth failed")})
	assert.Error(t, svc.CheckAccountStatus())
}

func TestMessageTemplates(t *testing.T) {
	at := time.Date(2026, 9, 14, 10, 30, 0, 0, time.UTC)
	services := []string{"Haircut", "Beard Trim"}

	otp := OTPMessage("123456", "Salon Luna")
	assert.Contains(t, otp, "123456")
	assert.Contains(t, otp, "Salon Luna")
	assert.Contains(t, otp, "10 minutes")

	approval := ApprovalMessage("Salon Luna", at, services)
	assert.Contains(t, approval, "Haircut, Beard Trim")
	assert.Contains(t, approval, "14.09.2026 10:30")

	reminder := ReminderMessage("Salon Luna", at, services)
	assert.Contains(t, reminder, "Reminder")
	assert.Contains(t, reminder, "14.09.2026 10:30")

	cancellation := CancellationMessage("Salon Luna", at, nil)
	assert.Contains(t, cancellation, "cancelled")
	assert.Contains(t, cancellation, "your appointment")
}
