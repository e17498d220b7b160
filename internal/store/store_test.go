package store

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stillpoint/portal/internal/domain"
)

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *Store) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, New(mock)
}

func TestListClients(t *testing.T) {
	mock, s := newMock(t)

	mock.ExpectQuery("SELECT id, name").
		WithArgs("org-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).
			AddRow("c1", "Ada").
			AddRow("c2", "Zoe"))

	clients, err := s.ListClients(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, domain.Client{ID: "c1", Name: "Ada"}, clients[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAppointments(t *testing.T) {
	mock, s := newMock(t)
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	start := since.AddDate(0, 1, 0)
	cancelledAt := start.Add(-6 * time.Hour)

	mock.ExpectQuery("FROM appointments").
		WithArgs("org-1", since).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "client_id", "employee_id", "service_id", "start_at", "end_at",
			"status", "payment_status", "cancel_reason", "cancelled_at",
		}).AddRow(
			"a1", "c1", "e1", "svc-1", start, start.Add(time.Hour),
			"cancelled", "refunded", "sick", &cancelledAt,
		))

	appts, err := s.ListAppointments(context.Background(), "org-1", since)
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, domain.AppointmentCancelled, appts[0].Status)
	assert.Equal(t, domain.PaymentRefunded, appts[0].PaymentStatus)
	assert.Equal(t, "sick", appts[0].CancelReason)
	require.NotNil(t, appts[0].CancelledAt)
	assert.True(t, appts[0].CancelledAt.Equal(cancelledAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListNotifications(t *testing.T) {
	mock, s := newMock(t)
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM notifications").
		WithArgs("org-1", since).
		WillReturnRows(pgxmock.NewRows([]string{"id", "client_id", "channel", "message", "read", "created_at"}).
			AddRow("n1", "c1", "push", "slot open", true, since.Add(time.Hour)))

	ns, err := s.ListNotifications(context.Background(), "org-1", since)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	assert.Equal(t, domain.ChannelPush, ns[0].Channel)
	assert.True(t, ns[0].Read)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListWaitlist(t *testing.T) {
	mock, s := newMock(t)
	created := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM waitlist_entries").
		WithArgs("org-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "client_id", "service_id", "priority", "created_at"}).
			AddRow("w1", "c1", "svc-1", 2, created))

	entries, err := s.ListWaitlist(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Priority)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryErrorIsWrapped(t *testing.T) {
	mock, s := newMock(t)
	mock.ExpectQuery("SELECT id, name").
		WithArgs("org-1").
		WillReturnError(errors.New("boom"))

	_, err := s.ListClients(context.Background(), "org-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store: list clients")
}
