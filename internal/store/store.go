// Package store loads the raw domain records the behavior engines consume.
// Read-only by design: profiles and recommendations are derived values and
// are never written back.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stillpoint/portal/internal/domain"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides org-scoped read access to appointments, notifications,
// waitlist entries, and clients.
type Store struct {
	db DB
}

// New creates a store backed by a pgx pool or mock.
func New(db DB) *Store {
	return &Store{db: db}
}

// ListClients returns all clients of an org ordered by name.
func (s *Store) ListClients(ctx context.Context, orgID string) ([]domain.Client, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name
		FROM clients
		WHERE org_id = $1
		ORDER BY name ASC`, orgID)
	if err != nil {
		return nil, fmt.Errorf("store: list clients: %w", err)
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		var c domain.Client
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("store: scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// ListAppointments returns all appointments of an org that start on or after
// the since bound, ordered by start time.
func (s *Store) ListAppointments(ctx context.Context, orgID string, since time.Time) ([]domain.Appointment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, client_id, COALESCE(employee_id, ''), service_id, start_at, end_at, status, payment_status, COALESCE(cancel_reason, ''), cancelled_at
		FROM appointments
		WHERE org_id = $1 AND start_at >= $2
		ORDER BY start_at ASC`, orgID, since)
	if err != nil {
		return nil, fmt.Errorf("store: list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []domain.Appointment
	for rows.Next() {
		var (
			a               domain.Appointment
			status, payment string
		)
		err := rows.Scan(&a.ID, &a.ClientID, &a.EmployeeID, &a.ServiceID,
			&a.StartAt, &a.EndAt, &status, &payment, &a.CancelReason, &a.CancelledAt)
		if err != nil {
			return nil, fmt.Errorf("store: scan appointment: %w", err)
		}
		a.Status = domain.AppointmentStatus(status)
		a.PaymentStatus = domain.PaymentStatus(payment)
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

// ListNotifications returns all notifications of an org created on or after
// the since bound, ordered by creation time.
func (s *Store) ListNotifications(ctx context.Context, orgID string, since time.Time) ([]domain.Notification, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, client_id, channel, message, read, created_at
		FROM notifications
		WHERE org_id = $1 AND created_at >= $2
		ORDER BY created_at ASC`, orgID, since)
	if err != nil {
		return nil, fmt.Errorf("store: list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var (
			n       domain.Notification
			channel string
		)
		if err := rows.Scan(&n.ID, &n.ClientID, &channel, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan notification: %w", err)
		}
		n.Channel = domain.Channel(channel)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// ListWaitlist returns the open waitlist entries of an org ordered by
// priority then creation time.
func (s *Store) ListWaitlist(ctx context.Context, orgID string) ([]domain.WaitlistEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, client_id, COALESCE(service_id, ''), COALESCE(priority, 0), created_at
		FROM waitlist_entries
		WHERE org_id = $1
		ORDER BY priority DESC, created_at ASC`, orgID)
	if err != nil {
		return nil, fmt.Errorf("store: list waitlist: %w", err)
	}
	defer rows.Close()

	var entries []domain.WaitlistEntry
	for rows.Next() {
		var w domain.WaitlistEntry
		if err := rows.Scan(&w.ID, &w.ClientID, &w.ServiceID, &w.Priority, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan waitlist entry: %w", err)
		}
		entries = append(entries, w)
	}
	return entries, rows.Err()
}
