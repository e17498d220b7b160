package behavior

import (
	"time"

	"github.com/stillpoint/portal/internal/domain"
)

// Deriver converts raw domain records into normalized behavior events.
// Malformed or partial records are skipped, never raised: a cancelled
// appointment without a cancellation timestamp yields only its creation
// event.
type Deriver struct {
	ids IDGenerator
}

// NewDeriver creates a deriver minting event ids from the given generator.
func NewDeriver(ids IDGenerator) *Deriver {
	if ids == nil {
		ids = NewUUIDGenerator()
	}
	return &Deriver{ids: ids}
}

// Derive emits the event sequence for the given records, sorted by timestamp
// ascending. It is a pure transformation of its inputs.
func (d *Deriver) Derive(appointments []domain.Appointment, notifications []domain.Notification, waitlist []domain.WaitlistEntry) []Event {
	var events []Event
	for _, appt := range appointments {
		events = append(events, d.deriveAppointment(appt)...)
	}
	for _, n := range notifications {
		events = append(events, d.deriveNotification(n)...)
	}
	for _, w := range waitlist {
		if w.ClientID == "" || w.CreatedAt.IsZero() {
			continue
		}
		events = append(events, Event{
			ID:              d.ids.NewID(),
			ClientID:        w.ClientID,
			Type:            EventWaitlistJoined,
			Timestamp:       w.CreatedAt,
			WaitlistEntryID: w.ID,
		})
	}
	SortEvents(events)
	return events
}

func (d *Deriver) deriveAppointment(appt domain.Appointment) []Event {
	if appt.ClientID == "" || appt.StartAt.IsZero() {
		return nil
	}

	// No separate creation timestamp exists in the source data, so the
	// scheduling fact is anchored at the appointment start.
	events := []Event{{
		ID:            d.ids.NewID(),
		ClientID:      appt.ClientID,
		Type:          EventBookingCreated,
		Timestamp:     appt.StartAt,
		AppointmentID: appt.ID,
	}}

	switch appt.Status {
	case domain.AppointmentCompleted:
		endAt := appt.EndAt
		if endAt.IsZero() {
			endAt = appt.StartAt
		}
		events = append(events, Event{
			ID:            d.ids.NewID(),
			ClientID:      appt.ClientID,
			Type:          EventBookingCompleted,
			Timestamp:     endAt,
			AppointmentID: appt.ID,
		})
	case domain.AppointmentNoShow:
		events = append(events, Event{
			ID:            d.ids.NewID(),
			ClientID:      appt.ClientID,
			Type:          EventBookingNoShow,
			Timestamp:     appt.StartAt,
			AppointmentID: appt.ID,
		})
	case domain.AppointmentCancelled:
		if appt.CancelledAt == nil {
			break
		}
		hours := appt.StartAt.Sub(*appt.CancelledAt).Hours()
		if hours < 0 {
			hours = 0
		}
		events = append(events, Event{
			ID:                     d.ids.NewID(),
			ClientID:               appt.ClientID,
			Type:                   EventBookingCancelled,
			Timestamp:              *appt.CancelledAt,
			HoursBeforeAppointment: &hours,
			CancelReason:           appt.CancelReason,
			AppointmentID:          appt.ID,
		})
	}
	return events
}

func (d *Deriver) deriveNotification(n domain.Notification) []Event {
	if n.ClientID == "" || n.CreatedAt.IsZero() {
		return nil
	}
	events := []Event{{
		ID:             d.ids.NewID(),
		ClientID:       n.ClientID,
		Type:           EventNotificationSent,
		Timestamp:      n.CreatedAt,
		Channel:        n.Channel,
		NotificationID: n.ID,
	}}
	// The source only records a read flag; open/click/convert cannot be told
	// apart until richer delivery telemetry lands, so a read notification
	// derives a single opened event.
	if n.Read {
		events = append(events, Event{
			ID:             d.ids.NewID(),
			ClientID:       n.ClientID,
			Type:           EventNotificationOpened,
			Timestamp:      n.CreatedAt,
			Channel:        n.Channel,
			NotificationID: n.ID,
		})
	}
	return events
}

// FilterByClient returns only the events belonging to the given client,
// preserving order.
func FilterByClient(events []Event, clientID string) []Event {
	var out []Event
	for _, e := range events {
		if e.ClientID == clientID {
			out = append(out, e)
		}
	}
	return out
}

// GroupByClient splits an event sequence per client. The per-client order
// follows the input order.
func GroupByClient(events []Event) map[string][]Event {
	grouped := make(map[string][]Event)
	for _, e := range events {
		grouped[e.ClientID] = append(grouped[e.ClientID], e)
	}
	return grouped
}

// ageDays returns the whole number of days between now and the timestamp,
// rounded down. Future timestamps age as zero.
func ageDays(now, ts time.Time) int {
	if ts.After(now) {
		return 0
	}
	return int(now.Sub(ts).Hours() / 24)
}
