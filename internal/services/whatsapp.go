package services

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/rezervo-app/rezervo-backend/internal/metrics"
	"github.com/rezervo-app/rezervo-backend/internal/models"
	"github.com/rezervo-app/rezervo-backend/internal/storage"
	"github.com/rezervo-app/rezervo-backend/internal/utils"
)

// twilioAPI is the slice of the Twilio REST surface this service touches,
// injectable so tests can run against a fake.
type twilioAPI interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
	FetchBalance(params *twilioApi.FetchBalanceParams) (*twilioApi.ApiV2010Balance, error)
}

// SendRequest describes one outbound WhatsApp message.
type SendRequest struct {
	To            string
	Message       string
	MessageType   string
	BusinessID    string
	AppointmentID string
}

// SendResult is the explicit outcome of a send attempt. Callers decide
// whether a failure is fatal; the service never panics or hides errors in
// logs alone.
type SendResult struct {
	Success   bool
	MessageID string
	Error     string
}

// WhatsAppService sends business messages over Twilio's WhatsApp channel
// and records every attempt in the append-only message log.
type WhatsAppService struct {
	api     twilioAPI
	from    string
	store   storage.Store
	metrics *metrics.Metrics
}

// NewWhatsAppService creates a WhatsApp service from environment credentials.
func NewWhatsAppService(store storage.Store, m *metrics.Metrics) (*WhatsAppService, error) {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_WHATSAPP_FROM") // Format: "whatsapp:+14155238886"

	if accountSid == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})
	// A hung provider call must surface as a delivery failure, not block.
	client.Client.SetTimeout(10 * time.Second)

	return &WhatsAppService{
		api:     client.Api,
		from:    from,
		store:   store,
		metrics: m,
	}, nil
}

// SendMessage delivers one WhatsApp message and appends a log row for the
// attempt, success or failure.
func (w *WhatsAppService) SendMessage(req SendRequest) SendResult {
	to := fmt.Sprintf("whatsapp:+%s", utils.NormalizePhone(req.To, utils.CountryCode()))

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(w.from)
	params.SetTo(to)
	params.SetBody(req.Message)

	resp, err := w.api.CreateMessage(params)
	if err == nil && resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		err = fmt.Errorf("twilio error %d: %s", *resp.ErrorCode, derefString(resp.ErrorMessage))
	}
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp %s to %s: %v", req.MessageType, to, err)
		w.logAttempt(req, models.WhatsAppStatusFailed, "", err.Error())
		return SendResult{Success: false, Error: err.Error()}
	}

	sid := derefString(resp.Sid)
	log.Printf("✅ WhatsApp %s sent! SID: %s", req.MessageType, sid)
	w.logAttempt(req, models.WhatsAppStatusSent, sid, "")
	return SendResult{Success: true, MessageID: sid}
}

// CheckAccountStatus verifies the Twilio account is reachable and funded,
// independent of message sending.
func (w *WhatsAppService) CheckAccountStatus() error {
	balance, err := w.api.FetchBalance(&twilioApi.FetchBalanceParams{})
	if err != nil {
		return fmt.Errorf("twilio account check failed: %w", err)
	}
	log.Printf("✅ Twilio account reachable, balance: %s %s",
		derefString(balance.Balance), derefString(balance.Currency))
	return nil
}

func (w *WhatsAppService) logAttempt(req SendRequest, status, sid, errMsg string) {
	if w.metrics != nil {
		w.metrics.WhatsAppMessages.WithLabelValues(req.MessageType, status).Inc()
	}
	entry := &models.WhatsAppMessageLog{
		Phone:           utils.NormalizePhone(req.To, utils.CountryCode()),
		MessageType:     req.MessageType,
		MessageContent:  req.Message,
		BusinessID:      req.BusinessID,
		AppointmentID:   req.AppointmentID,
		Status:          status,
		TwilioMessageID: sid,
		ErrorMessage:    errMsg,
	}
	if err := w.store.CreateWhatsAppLog(entry); err != nil {
		log.Printf("Failed to write WhatsApp log row: %v", err)
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Message templates

// FormatAppointmentTime renders a timestamp the way customers expect it.
func FormatAppointmentTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// FormatServiceList joins service names for message bodies.
func FormatServiceList(services []string) string {
	if len(services) == 0 {
		return "your appointment"
	}
	return strings.Join(services, ", ")
}

// OTPMessage builds the verification code body.
func OTPMessage(code, businessName string) string {
	return fmt.Sprintf("Your %s verification code is %s. It expires in 10 minutes. Do not share this code with anyone.",
		businessName, code)
}

// ApprovalMessage builds the appointment confirmation body.
func ApprovalMessage(businessName string, at time.Time, services []string) string {
	return fmt.Sprintf("✅ %s confirmed your appointment for %s on %s. See you there!",
		businessName, FormatServiceList(services), FormatAppointmentTime(at))
}

// ReminderMessage builds the upcoming-appointment body.
func ReminderMessage(businessName string, at time.Time, services []string) string {
	return fmt.Sprintf("⏰ Reminder: your appointment at %s for %s is at %s.",
		businessName, FormatServiceList(services), FormatAppointmentTime(at))
}

// CancellationMessage builds the cancellation body.
func CancellationMessage(businessName string, at time.Time, services []string) string {
	return fmt.Sprintf("❌ %s cancelled your appointment for %s scheduled at %s. Please rebook if needed.",
		businessName, FormatServiceList(services), FormatAppointmentTime(at))
}
