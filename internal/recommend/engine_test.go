package recommend

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stillpoint/portal/internal/behavior"
	"github.com/stillpoint/portal/internal/domain"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time { return now.AddDate(0, 0, -n) }

func newTestEngine() *Engine {
	return NewEngine(behavior.NewSequenceGenerator("rec"), []string{"svc-individual"})
}

func completedVisit(id, clientID string, end time.Time) domain.Appointment {
	return domain.Appointment{
		ID:            id,
		ClientID:      clientID,
		ServiceID:     "svc-individual",
		StartAt:       end.Add(-time.Hour),
		EndAt:         end,
		Status:        domain.AppointmentCompleted,
		PaymentStatus: domain.PaymentPaid,
	}
}

func TestInactiveClientSingleRecommendation(t *testing.T) {
	e := newTestEngine()
	clients := []domain.Client{{ID: "c1", Name: "Ada"}}
	appts := []domain.Appointment{completedVisit("a1", "c1", daysAgo(61))}

	recs := e.Build(clients, appts, nil, now)

	require.Len(t, recs, 1)
	assert.Equal(t, TypeInactiveCall, recs[0].Type)
	assert.Equal(t, 1, recs[0].Priority)
	assert.Contains(t, recs[0].Reason, "61 days")
	assert.Equal(t, "Ada", recs[0].ClientName)
	assert.NotEmpty(t, recs[0].ID)
}

func TestInactiveBoundaries(t *testing.T) {
	e := newTestEngine()
	clients := []domain.Client{{ID: "c1", Name: "Ada"}}

	within := e.Build(clients, []domain.Appointment{completedVisit("a", "c1", daysAgo(364))}, nil, now)
	require.Len(t, within, 1)
	assert.Equal(t, TypeInactiveCall, within[0].Type)

	tooOld := e.Build(clients, []domain.Appointment{completedVisit("a", "c1", daysAgo(365))}, nil, now)
	assert.Empty(t, tooOld)

	// 59 days: not inactive yet, falls outside the 7–45 day rebooking band too
	recent := e.Build(clients, []domain.Appointment{completedVisit("a", "c1", daysAgo(59))}, nil, now)
	assert.Empty(t, recent)
}

func TestWaitlistFollowUp(t *testing.T) {
	e := newTestEngine()
	recs := e.Build(
		[]domain.Client{{ID: "c1", Name: "Ada"}},
		nil,
		[]domain.WaitlistEntry{{ID: "w9", ClientID: "c1", CreatedAt: daysAgo(2)}},
		now,
	)

	require.Len(t, recs, 1)
	assert.Equal(t, TypeWaitlistFollow, recs[0].Type)
	assert.Equal(t, 2, recs[0].Priority)
	assert.Equal(t, "w9", recs[0].RelatedID)
}

func TestLastVisitNoShow(t *testing.T) {
	e := newTestEngine()
	appts := []domain.Appointment{
		completedVisit("a1", "c1", daysAgo(80)),
		{
			ID: "a2", ClientID: "c1", ServiceID: "svc-individual",
			StartAt: daysAgo(3), EndAt: daysAgo(3).Add(time.Hour),
			Status: domain.AppointmentNoShow, PaymentStatus: domain.PaymentUnpaid,
		},
	}
	recs := e.Build([]domain.Client{{ID: "c1", Name: "Ada"}}, appts, nil, now)

	var types []Type
	for _, r := range recs {
		types = append(types, r.Type)
	}
	assert.Contains(t, types, TypeNoShowRebook)
	assert.Contains(t, types, TypeInactiveCall) // last real visit 80 days ago
}

func TestRefundReengage(t *testing.T) {
	e := newTestEngine()
	cancelledAt := daysAgo(10)
	appts := []domain.Appointment{{
		ID: "a1", ClientID: "c1", ServiceID: "svc-individual",
		StartAt: daysAgo(9), EndAt: daysAgo(9).Add(time.Hour),
		Status: domain.AppointmentCancelled, PaymentStatus: domain.PaymentRefunded,
		CancelledAt: &cancelledAt,
	}}
	recs := e.Build([]domain.Client{{ID: "c1", Name: "Ada"}}, appts, nil, now)

	require.Len(t, recs, 1)
	assert.Equal(t, TypeRefundReengage, recs[0].Type)
	assert.Equal(t, 3, recs[0].Priority)
}

func TestGroupUpsell(t *testing.T) {
	e := newTestEngine()
	var appts []domain.Appointment
	for i := 0; i < 5; i++ {
		appts = append(appts, completedVisit(fmt.Sprintf("a%d", i), "c1", daysAgo(8+i)))
	}
	recs := e.Build([]domain.Client{{ID: "c1", Name: "Ada"}}, appts, nil, now)

	var types []Type
	for _, r := range recs {
		types = append(types, r.Type)
	}
	assert.Contains(t, types, TypeGroupUpsell)
	assert.Contains(t, types, TypeRebookingOffer) // last visit 8 days ago

	// one attended group session disqualifies the upsell
	group := completedVisit("g1", "c1", daysAgo(7))
	group.ServiceID = "svc-group"
	recs = e.Build([]domain.Client{{ID: "c1", Name: "Ada"}}, append(appts, group), nil, now)
	for _, r := range recs {
		assert.NotEqual(t, TypeGroupUpsell, r.Type)
	}
}

func TestUpcomingReminder(t *testing.T) {
	e := newTestEngine()
	appts := []domain.Appointment{{
		ID: "a1", ClientID: "c1", ServiceID: "svc-individual",
		StartAt: now.Add(24 * time.Hour), EndAt: now.Add(25 * time.Hour),
		Status: domain.AppointmentScheduled, PaymentStatus: domain.PaymentUnpaid,
	}}
	recs := e.Build([]domain.Client{{ID: "c1", Name: "Ada"}}, appts, nil, now)

	require.Len(t, recs, 1)
	assert.Equal(t, TypeUpcomingReminder, recs[0].Type)
	assert.Equal(t, 4, recs[0].Priority)

	// cancelled upcoming appointments do not trigger reminders
	appts[0].Status = domain.AppointmentCancelled
	assert.Empty(t, e.Build([]domain.Client{{ID: "c1", Name: "Ada"}}, appts, nil, now))
}

func TestOutputOrdering(t *testing.T) {
	e := newTestEngine()
	clients := []domain.Client{
		{ID: "c1", Name: "Zoe"},
		{ID: "c2", Name: "Ada"},
		{ID: "c3", Name: "Mia"},
	}
	appts := []domain.Appointment{
		completedVisit("a1", "c1", daysAgo(70)), // Zoe: inactive (1)
		completedVisit("a2", "c2", daysAgo(70)), // Ada: inactive (1)
		completedVisit("a3", "c3", daysAgo(10)), // Mia: rebooking offer (4)
	}
	waitlist := []domain.WaitlistEntry{{ID: "w1", ClientID: "c3", CreatedAt: daysAgo(1)}}

	recs := e.Build(clients, appts, waitlist, now)

	require.Len(t, recs, 4)
	// non-decreasing priority, names sorted within equal priority
	assert.Equal(t, 1, recs[0].Priority)
	assert.Equal(t, "Ada", recs[0].ClientName)
	assert.Equal(t, "Zoe", recs[1].ClientName)
	assert.Equal(t, 2, recs[2].Priority) // Mia waitlist
	assert.Equal(t, 4, recs[3].Priority) // Mia rebooking
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i].Priority, recs[i-1].Priority)
	}
}

func TestNoHistoryNoRecommendations(t *testing.T) {
	e := newTestEngine()
	recs := e.Build([]domain.Client{{ID: "c1", Name: "Ada"}}, nil, nil, now)
	assert.Empty(t, recs)
}
