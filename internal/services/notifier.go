package services

import (
	"fmt"
	"log"

	"github.com/rezervo-app/rezervo-backend/internal/models"
	"github.com/rezervo-app/rezervo-backend/internal/storage"
)

// NotificationPusher is the push channel as the orchestrator sees it.
type NotificationPusher interface {
	SendToBusiness(businessID, title, body, notifType string, data map[string]interface{}) (PushResult, error)
	SendToUser(userID, title, body, notifType string, data map[string]interface{}) (PushResult, error)
}

// NotifierService composes the push and WhatsApp channels per domain event.
// Channel failures are logged and swallowed here: a booking, confirmation,
// or cancellation must succeed even if every notification channel fails.
type NotifierService struct {
	store    storage.Store
	push     NotificationPusher
	whatsapp WhatsAppSender
}

// NewNotifierService creates the notification orchestrator.
func NewNotifierService(store storage.Store, push NotificationPusher, whatsapp WhatsAppSender) *NotifierService {
	return &NotifierService{
		store:    store,
		push:     push,
		whatsapp: whatsapp,
	}
}

// NotifyNewAppointment informs the business about a fresh booking.
func (n *NotifierService) NotifyNewAppointment(appt *models.Appointment) {
	who := appt.GuestName
	if who == "" {
		who = "A customer"
	}
	body := fmt.Sprintf("%s booked %s for %s.",
		who, FormatServiceList(appt.ServiceList()), FormatAppointmentTime(appt.AppointmentAt))

	n.pushToBusiness(appt.BusinessID, "New appointment", body,
		models.NotificationTypeAppointment, appointmentData(appt))
}

// NotifyAppointmentStatus informs the customer about a status transition.
// Confirmations and cancellations additionally go out over WhatsApp when
// the business opted in; the WhatsApp outcome never propagates.
func (n *NotifierService) NotifyAppointmentStatus(appt *models.Appointment, status string) {
	business, err := n.store.GetBusiness(appt.BusinessID)
	if err != nil {
		log.Printf("Cannot resolve business %s for status notification: %v", appt.BusinessID, err)
		return
	}

	var body, waBody, waType string
	switch status {
	case models.AppointmentStatusConfirmed:
		body = fmt.Sprintf("%s confirmed your appointment for %s.",
			business.Name, FormatAppointmentTime(appt.AppointmentAt))
		waBody = ApprovalMessage(business.Name, appt.AppointmentAt, appt.ServiceList())
		waType = models.WhatsAppTypeApproval
	case models.AppointmentStatusCancelled:
		body = fmt.Sprintf("%s cancelled your appointment scheduled at %s.",
			business.Name, FormatAppointmentTime(appt.AppointmentAt))
		waBody = CancellationMessage(business.Name, appt.AppointmentAt, appt.ServiceList())
		waType = models.WhatsAppTypeCancellation
	default:
		body = fmt.Sprintf("Your appointment at %s is now %s.", business.Name, status)
	}

	if appt.CustomerUserID != nil {
		n.pushToUser(*appt.CustomerUserID, "Appointment update", body,
			models.NotificationTypeStatus, appointmentData(appt))
	}

	if waBody != "" {
		n.sendWhatsApp(business, appt, waBody, waType)
	}
}

// SendAppointmentReminder notifies the customer about an upcoming
// appointment over push and WhatsApp. Callers are expected to have claimed
// the appointment row already.
func (n *NotifierService) SendAppointmentReminder(appt *models.Appointment) {
	business, err := n.store.GetBusiness(appt.BusinessID)
	if err != nil {
		log.Printf("Cannot resolve business %s for reminder: %v", appt.BusinessID, err)
		return
	}

	body := ReminderMessage(business.Name, appt.AppointmentAt, appt.ServiceList())

	if appt.CustomerUserID != nil {
		n.pushToUser(*appt.CustomerUserID, "Upcoming appointment", body,
			models.NotificationTypeReminder, appointmentData(appt))
	}

	n.sendWhatsApp(business, appt, body, models.WhatsAppTypeReminder)
}

// NotifyReview informs the business owner about a new review.
func (n *NotifierService) NotifyReview(businessID, reviewerName string, rating int) {
	if reviewerName == "" {
		reviewerName = "A customer"
	}
	body := fmt.Sprintf("%s left a %d-star review.", reviewerName, rating)
	n.pushToBusiness(businessID, "New review", body, models.NotificationTypeReview, nil)
}

// NotifyBusinessApproval informs an owner their business went live.
func (n *NotifierService) NotifyBusinessApproval(business *models.Business) {
	body := fmt.Sprintf("🎉 %s has been approved and is now visible to customers.", business.Name)
	n.pushToUser(business.OwnerUserID, "Business approved", body,
		models.NotificationTypeApproval, nil)
}

// NotifyFavoriteBusinessUpdate fans an announcement out to every customer
// following the business.
func (n *NotifierService) NotifyFavoriteBusinessUpdate(businessID, update string) {
	business, err := n.store.GetBusiness(businessID)
	if err != nil {
		log.Printf("Cannot resolve business %s for favorite update: %v", businessID, err)
		return
	}

	userIDs, err := n.store.GetFavoriteUserIDs(businessID)
	if err != nil {
		log.Printf("Cannot load followers of business %s: %v", businessID, err)
		return
	}

	body := fmt.Sprintf("%s: %s", business.Name, update)
	for _, userID := range userIDs {
		n.pushToUser(userID, "Update from "+business.Name, body,
			models.NotificationTypeFavorite, nil)
	}
}

// SendSystemMessage delivers a generic platform message to one user.
func (n *NotifierService) SendSystemMessage(userID, message string) {
	n.pushToUser(userID, "Rezervo", message, models.NotificationTypeSystem, nil)
}

func (n *NotifierService) pushToBusiness(businessID, title, body, notifType string, data map[string]interface{}) {
	result, err := n.push.SendToBusiness(businessID, title, body, notifType, data)
	if err != nil {
		log.Printf("Push to business %s failed: %v", businessID, err)
		return
	}
	if result.Failed > 0 {
		log.Printf("Push to business %s: %d/%d endpoints failed", businessID, result.Failed, result.Total)
	}
}

func (n *NotifierService) pushToUser(userID, title, body, notifType string, data map[string]interface{}) {
	result, err := n.push.SendToUser(userID, title, body, notifType, data)
	if err != nil {
		log.Printf("Push to user %s failed: %v", userID, err)
		return
	}
	if result.Failed > 0 {
		log.Printf("Push to user %s: %d/%d endpoints failed", userID, result.Failed, result.Total)
	}
}

// sendWhatsApp applies the per-business opt-in gate. Opted-out businesses
// are treated as success: not attempted, not an error.
func (n *NotifierService) sendWhatsApp(business *models.Business, appt *models.Appointment, body, msgType string) {
	if !business.WhatsAppNotificationsEnabled {
		return
	}
	phone := appt.CustomerPhone()
	if phone == "" {
		return
	}

	result := n.whatsapp.SendMessage(SendRequest{
		To:            phone,
		Message:       body,
		MessageType:   msgType,
		BusinessID:    business.BusinessID,
		AppointmentID: appt.AppointmentID,
	})
	if !result.Success {
		// Deliberately swallowed: WhatsApp is a secondary channel.
		log.Printf("WhatsApp %s for appointment %s failed: %s", msgType, appt.AppointmentID, result.Error)
	}
}

func appointmentData(appt *models.Appointment) map[string]interface{} {
	return map[string]interface{}{
		"appointment_id": appt.AppointmentID,
		"business_id":    appt.BusinessID,
		"appointment_at": appt.AppointmentAt,
		"status":         appt.Status,
	}
}
