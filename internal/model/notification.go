package model

import "time"

// NotificationType is the discriminator written into every encoded notification.
type NotificationType string

const (
	TypeEmail NotificationType = "EmailNotification"
	TypeSms   NotificationType = "SmsNotification"
	TypePush  NotificationType = "PushNotification"
)

// Notification is the closed set of notification variants.
//
// Only *EmailNotification, *SmsNotification and *PushNotification implement it.
type Notification interface {
	GetID() string
	Common() *Base
	Channel() string

	sealed()
}

// Base holds the fields shared by every notification variant.
type Base struct {
	ID           string    `json:"id"`                  // unique within a partition, minted at intake
	RequestID    string    `json:"requestId,omitempty"` // batch request id, the document partition key
	ScheduleDate time.Time `json:"scheduleDate"`        // delivery ordering key
	Importance   *string   `json:"importance,omitempty"`
}

// GetID returns the notification identifier.
func (b *Base) GetID() string { return b.ID }

// Common exposes the shared fields for in-place updates.
func (b *Base) Common() *Base { return b }

// EmailNotification is delivered by email.
type EmailNotification struct {
	Base
	To      string  `json:"to" validate:"required"`
	Message *string `json:"message,omitempty"`
	Cc      *string `json:"cc,omitempty"`
	Bcc     *string `json:"bcc,omitempty"`
	Subject *string `json:"subject,omitempty"`
}

// SmsNotification is delivered as a text message.
type SmsNotification struct {
	Base
	Message string `json:"message" validate:"required"`
	Target  string `json:"target" validate:"required"`
}

// PushNotification is delivered as a device push message.
type PushNotification struct {
	Base
	Message string `json:"message" validate:"required"`
	Target  string `json:"target" validate:"required"`
}

func (*EmailNotification) Channel() string { return "email" }
func (*SmsNotification) Channel() string   { return "sms" }
func (*PushNotification) Channel() string  { return "push" }

func (*EmailNotification) sealed() {}
func (*SmsNotification) sealed()   {}
func (*PushNotification) sealed()  {}
