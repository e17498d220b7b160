// Package behavior implements the client behavior profiling engine: it turns
// raw booking, notification, and waitlist history into windowed metrics,
// bounded scores, explainable tags, and an outreach strategy. Every function
// in this package is pure: no clocks, no I/O, no shared state. Callers pass
// the reference time explicitly so identical inputs always produce identical
// profiles.
package behavior

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/stillpoint/portal/internal/domain"
)

// EventType discriminates the behavior event union.
type EventType string

const (
	EventBookingCreated     EventType = "booking_created"
	EventBookingCompleted   EventType = "booking_completed"
	EventBookingCancelled   EventType = "booking_cancelled"
	EventBookingNoShow      EventType = "booking_no_show"
	EventBookingRescheduled EventType = "booking_rescheduled"

	EventWaitlistJoined EventType = "waitlist_joined"
	EventWaitlistLeft   EventType = "waitlist_left"

	EventSubstituteOfferReceived EventType = "substitute_offer_received"
	EventSubstituteOfferAccepted EventType = "substitute_offer_accepted"
	EventSubstituteOfferDeclined EventType = "substitute_offer_declined"
	EventSlotClaimed             EventType = "slot_claimed"

	EventNotificationSent      EventType = "notification_sent"
	EventNotificationOpened    EventType = "notification_opened"
	EventNotificationClicked   EventType = "notification_clicked"
	EventNotificationConverted EventType = "notification_converted"
	EventNotificationMuted     EventType = "notification_muted"
)

var eventTypes = map[EventType]struct{}{
	EventBookingCreated:          {},
	EventBookingCompleted:        {},
	EventBookingCancelled:        {},
	EventBookingNoShow:           {},
	EventBookingRescheduled:      {},
	EventWaitlistJoined:          {},
	EventWaitlistLeft:            {},
	EventSubstituteOfferReceived: {},
	EventSubstituteOfferAccepted: {},
	EventSubstituteOfferDeclined: {},
	EventSlotClaimed:             {},
	EventNotificationSent:        {},
	EventNotificationOpened:      {},
	EventNotificationClicked:     {},
	EventNotificationConverted:   {},
	EventNotificationMuted:       {},
}

var (
	ErrUnknownEventType = errors.New("behavior: unknown event type")
	ErrMissingClientID  = errors.New("behavior: client id is required")
)

// ParseEventType validates a raw discriminator. Unknown values are rejected
// rather than coerced.
func ParseEventType(raw string) (EventType, error) {
	et := EventType(raw)
	if _, ok := eventTypes[et]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEventType, raw)
	}
	return et, nil
}

// Event is one normalized, immutable behavior fact. The variant-specific
// fields are pointers so that "absent" and "zero" stay distinguishable when
// events round-trip through JSON.
type Event struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// booking_cancelled
	HoursBeforeAppointment *float64 `json:"hours_before_appointment,omitempty"`
	CancelReason           string   `json:"cancel_reason,omitempty"`

	// booking_created, when the source records a creation timestamp
	LeadTimeHours *float64 `json:"lead_time_hours,omitempty"`

	// notification_* and substitute_offer_*
	Channel             domain.Channel `json:"channel,omitempty"`
	ResponseTimeMinutes *float64       `json:"response_time_minutes,omitempty"`

	// back-references into the source records
	AppointmentID   string `json:"appointment_id,omitempty"`
	NotificationID  string `json:"notification_id,omitempty"`
	WaitlistEntryID string `json:"waitlist_entry_id,omitempty"`
}

// Validate checks the input contract shared by all variants.
func (e Event) Validate() error {
	if e.ClientID == "" {
		return ErrMissingClientID
	}
	if _, err := ParseEventType(string(e.Type)); err != nil {
		return err
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("behavior: event %s has no timestamp", e.ID)
	}
	return nil
}

// UnmarshalJSON parses an event and rejects unknown discriminators.
func (e *Event) UnmarshalJSON(data []byte) error {
	type alias Event
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if _, err := ParseEventType(string(a.Type)); err != nil {
		return err
	}
	*e = Event(a)
	return nil
}

// SortEvents orders events by timestamp ascending, ties broken by id so the
// order is total and reproducible.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].ID < events[j].ID
		}
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}

// IDGenerator mints identifiers for derived events and recommendations. It
// is injected so the engines stay free of global mutable state.
type IDGenerator interface {
	NewID() string
}

type uuidGenerator struct{}

func (uuidGenerator) NewID() string { return uuid.NewString() }

// NewUUIDGenerator returns the production generator backed by random UUIDs.
func NewUUIDGenerator() IDGenerator { return uuidGenerator{} }

// SequenceGenerator mints "prefix-1", "prefix-2", … and is safe for
// concurrent use. Intended for tests and replay tooling that need stable ids.
type SequenceGenerator struct {
	prefix string
	n      atomic.Int64
}

// NewSequenceGenerator returns a deterministic generator with the given prefix.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

func (g *SequenceGenerator) NewID() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.n.Add(1))
}
