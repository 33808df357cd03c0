package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// WebhookHandler receives Twilio status callbacks
type WebhookHandler struct{}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler() *WebhookHandler {
	return &WebhookHandler{}
}

// TwilioStatus logs provider-side delivery status transitions for outbound
// WhatsApp messages. Observability only: the message log rows written at
// send time are append-only and never updated from here.
func (h *WebhookHandler) TwilioStatus(c *fiber.Ctx) error {
	sid := c.FormValue("MessageSid")
	status := c.FormValue("MessageStatus")
	errorCode := c.FormValue("ErrorCode")

	if errorCode != "" {
		log.Printf("📬 Twilio message %s status: %s (error %s)", sid, status, errorCode)
	} else {
		log.Printf("📬 Twilio message %s status: %s", sid, status)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
