// Package recommend builds the prioritized staff action list. It reads raw
// domain records directly rather than assembled behavior profiles: the
// heuristics here need simpler per-client facts and must keep working even
// when profiling is reconfigured. Pure like the profiling engine; the
// reference time is always passed in.
package recommend

import (
	"fmt"
	"sort"
	"time"

	"github.com/stillpoint/portal/internal/behavior"
	"github.com/stillpoint/portal/internal/domain"
)

// Type enumerates the seven recommendation kinds.
type Type string

const (
	TypeInactiveCall     Type = "inactive_call"
	TypeWaitlistFollow   Type = "waitlist_follow_up"
	TypeNoShowRebook     Type = "no_show_rebook"
	TypeRefundReengage   Type = "refund_reengage"
	TypeGroupUpsell      Type = "group_upsell"
	TypeUpcomingReminder Type = "upcoming_reminder"
	TypeRebookingOffer   Type = "rebooking_offer"
)

// Recommendation is one prioritized, explainable staff action. Transient:
// regenerated per request, never persisted as engine state.
type Recommendation struct {
	ID              string `json:"id"`
	ClientID        string `json:"client_id"`
	ClientName      string `json:"client_name"`
	Type            Type   `json:"type"`
	Reason          string `json:"reason"`
	Priority        int    `json:"priority"`
	SuggestedAction string `json:"suggested_action"`
	RelatedID       string `json:"related_id,omitempty"`
}

// clientFacts are the per-client aggregates the heuristics evaluate.
type clientFacts struct {
	client           domain.Client
	lastVisit        *time.Time
	lastWasNoShow    bool
	refundedRecently bool
	upcomingWithin2d bool
	waitlistEntryID  string
	onWaitlist       bool
	individualDone   int
	groupDone        int
}

// heuristic optionally emits one recommendation for a client.
type heuristic func(f clientFacts, now time.Time) (Recommendation, bool)

// Engine evaluates the heuristic table over all clients.
type Engine struct {
	ids behavior.IDGenerator
	// individualServices classifies service ids as one-on-one sessions;
	// everything else counts as a group session.
	individualServices map[string]bool
	heuristics         []heuristic
}

// NewEngine creates a recommendation engine. individualServiceIDs classifies
// completed sessions for the group-upsell heuristic.
func NewEngine(ids behavior.IDGenerator, individualServiceIDs []string) *Engine {
	if ids == nil {
		ids = behavior.NewUUIDGenerator()
	}
	services := make(map[string]bool, len(individualServiceIDs))
	for _, id := range individualServiceIDs {
		services[id] = true
	}
	e := &Engine{ids: ids, individualServices: services}
	e.heuristics = defaultHeuristics()
	return e
}

// Build evaluates every heuristic for every client against the reference
// time. The result is sorted by priority ascending, ties broken by client
// name; clients with no qualifying history contribute nothing.
func (e *Engine) Build(clients []domain.Client, appointments []domain.Appointment, waitlist []domain.WaitlistEntry, now time.Time) []Recommendation {
	var out []Recommendation
	for _, c := range clients {
		if c.ID == "" {
			continue
		}
		facts := e.gatherFacts(c, appointments, waitlist, now)
		for _, h := range e.heuristics {
			rec, ok := h(facts, now)
			if !ok {
				continue
			}
			rec.ID = e.ids.NewID()
			rec.ClientID = c.ID
			rec.ClientName = c.Name
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ClientName < out[j].ClientName
	})
	return out
}

// attendedStatuses are appointment outcomes that count as a visit when
// computing the last-visit date.
func attended(a domain.Appointment) bool {
	if a.Status == domain.AppointmentCompleted {
		return true
	}
	switch a.PaymentStatus {
	case domain.PaymentPaid, domain.PaymentInvoiced, domain.PaymentUnpaid:
		return a.Status != domain.AppointmentCancelled && a.Status != domain.AppointmentNoShow
	}
	return false
}

func (e *Engine) gatherFacts(c domain.Client, appointments []domain.Appointment, waitlist []domain.WaitlistEntry, now time.Time) clientFacts {
	f := clientFacts{client: c}

	var lastEnded *domain.Appointment
	for i := range appointments {
		a := appointments[i]
		if a.ClientID != c.ID {
			continue
		}

		if attended(a) && a.EndAt.Before(now) {
			if f.lastVisit == nil || a.EndAt.After(*f.lastVisit) {
				end := a.EndAt
				f.lastVisit = &end
			}
		}

		// chronologically last appointment that has already started
		if a.StartAt.Before(now) {
			if lastEnded == nil || a.StartAt.After(lastEnded.StartAt) {
				lastEnded = &appointments[i]
			}
		}

		if a.PaymentStatus == domain.PaymentRefunded && a.CancelledAt != nil &&
			now.Sub(*a.CancelledAt) <= 30*24*time.Hour {
			f.refundedRecently = true
		}

		if a.StartAt.After(now) && a.StartAt.Sub(now) <= 48*time.Hour &&
			a.Status != domain.AppointmentCancelled {
			f.upcomingWithin2d = true
		}

		if a.Status == domain.AppointmentCompleted {
			if e.individualServices[a.ServiceID] {
				f.individualDone++
			} else {
				f.groupDone++
			}
		}
	}
	if lastEnded != nil {
		f.lastWasNoShow = lastEnded.Status == domain.AppointmentNoShow
	}

	for _, w := range waitlist {
		if w.ClientID == c.ID {
			f.onWaitlist = true
			f.waitlistEntryID = w.ID
			break
		}
	}
	return f
}

func defaultHeuristics() []heuristic {
	return []heuristic{
		inactiveCall,
		waitlistFollowUp,
		noShowRebook,
		refundReengage,
		groupUpsell,
		upcomingReminder,
		rebookingOffer,
	}
}

func inactiveCall(f clientFacts, now time.Time) (Recommendation, bool) {
	if f.lastVisit == nil {
		return Recommendation{}, false
	}
	days := int(now.Sub(*f.lastVisit).Hours() / 24)
	if days < 60 || days >= 365 {
		return Recommendation{}, false
	}
	return Recommendation{
		Type:            TypeInactiveCall,
		Priority:        1,
		Reason:          fmt.Sprintf("last visit was %d days ago", days),
		SuggestedAction: "Call the client to check in and offer an appointment.",
	}, true
}

func waitlistFollowUp(f clientFacts, _ time.Time) (Recommendation, bool) {
	if !f.onWaitlist {
		return Recommendation{}, false
	}
	return Recommendation{
		Type:            TypeWaitlistFollow,
		Priority:        2,
		Reason:          "client is on the waitlist",
		SuggestedAction: "Follow up as soon as a slot frees up.",
		RelatedID:       f.waitlistEntryID,
	}, true
}

func noShowRebook(f clientFacts, _ time.Time) (Recommendation, bool) {
	if !f.lastWasNoShow {
		return Recommendation{}, false
	}
	return Recommendation{
		Type:            TypeNoShowRebook,
		Priority:        2,
		Reason:          "most recent appointment was a no-show",
		SuggestedAction: "Call the client to rebook the missed appointment.",
	}, true
}

func refundReengage(f clientFacts, _ time.Time) (Recommendation, bool) {
	if !f.refundedRecently {
		return Recommendation{}, false
	}
	return Recommendation{
		Type:            TypeRefundReengage,
		Priority:        3,
		Reason:          "a cancellation was refunded within the last 30 days",
		SuggestedAction: "Reach out personally to re-engage the client.",
	}, true
}

func groupUpsell(f clientFacts, _ time.Time) (Recommendation, bool) {
	if f.individualDone < 5 || f.groupDone != 0 {
		return Recommendation{}, false
	}
	return Recommendation{
		Type:            TypeGroupUpsell,
		Priority:        3,
		Reason:          fmt.Sprintf("completed %d individual sessions and no group sessions", f.individualDone),
		SuggestedAction: "Suggest trying a group session.",
	}, true
}

func upcomingReminder(f clientFacts, _ time.Time) (Recommendation, bool) {
	if !f.upcomingWithin2d {
		return Recommendation{}, false
	}
	return Recommendation{
		Type:            TypeUpcomingReminder,
		Priority:        4,
		Reason:          "appointment scheduled within the next 2 days",
		SuggestedAction: "Send an appointment reminder.",
	}, true
}

func rebookingOffer(f clientFacts, now time.Time) (Recommendation, bool) {
	if f.lastVisit == nil {
		return Recommendation{}, false
	}
	days := int(now.Sub(*f.lastVisit).Hours() / 24)
	if days < 7 || days > 45 {
		return Recommendation{}, false
	}
	return Recommendation{
		Type:            TypeRebookingOffer,
		Priority:        4,
		Reason:          fmt.Sprintf("last visit was %d days ago", days),
		SuggestedAction: "Offer to book the next appointment.",
	}, true
}
