// Package domain holds the raw records the behavior subsystem consumes.
// These mirror the persistence layer's rows; the engines never mutate them.
package domain

import "time"

// AppointmentStatus tracks the lifecycle of an appointment.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentNoShow    AppointmentStatus = "no_show"
)

// PaymentStatus tracks how an appointment was settled.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentInvoiced PaymentStatus = "invoiced"
	PaymentRefunded PaymentStatus = "refunded"
)

// Channel is a notification delivery channel.
type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
	ChannelInApp Channel = "in_app"
)

// Channels lists all delivery channels in canonical order. The order is the
// tie-break when affinity scores are equal, so it must stay stable.
func Channels() []Channel {
	return []Channel{ChannelPush, ChannelSMS, ChannelEmail, ChannelInApp}
}

// Appointment is one booked session as stored by the calendar.
type Appointment struct {
	ID            string            `json:"id"`
	ClientID      string            `json:"client_id"`
	EmployeeID    string            `json:"employee_id,omitempty"`
	ServiceID     string            `json:"service_id"`
	StartAt       time.Time         `json:"start_at"`
	EndAt         time.Time         `json:"end_at"`
	Status        AppointmentStatus `json:"status"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	CancelReason  string            `json:"cancel_reason,omitempty"`
	CancelledAt   *time.Time        `json:"cancelled_at,omitempty"`
}

// Notification is one outreach message as stored by the notifier.
type Notification struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Channel   Channel   `json:"channel"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// WaitlistEntry is one open waitlist registration.
type WaitlistEntry struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	ServiceID string    `json:"service_id,omitempty"`
	Priority  int       `json:"priority,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Client is the minimal client identity the engines need.
type Client struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
