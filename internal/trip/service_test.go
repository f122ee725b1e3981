package trip

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend-zodiack/internal/shared/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

var tripColumns = []string{"id", "name", "description", "created_by", "start_time", "end_time", "status", "cancelled", "invite_code", "created_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestDeriveStatus(t *testing.T) {
	now := time.Now()
	start := now.Add(-time.Hour)
	end := now.Add(time.Hour)

	if got := DeriveStatus(now, now.Add(time.Hour), now.Add(2*time.Hour), false); got != StatusPlanned {
		t.Fatalf("future trip: got %s", got)
	}
	if got := DeriveStatus(now, start, end, false); got != StatusOngoing {
		t.Fatalf("running trip: got %s", got)
	}
	if got := DeriveStatus(now, now.Add(-2*time.Hour), now.Add(-time.Hour), false); got != StatusCompleted {
		t.Fatalf("past trip: got %s", got)
	}
	if got := DeriveStatus(now, start, end, true); got != StatusCancelled {
		t.Fatalf("cancelled override: got %s", got)
	}
}

func TestCreateAndGetTrip(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	start := time.Now().Add(time.Hour)
	end := start.Add(6 * time.Hour)

	mock.ExpectQuery(`INSERT INTO trips`).
		WithArgs(pgxmock.AnyArg(), "Museum day", "bring lunch", "teacher-1", start, end, StatusPlanned, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	created, err := svc.CreateTrip(context.Background(), Trip{
		Name:        "Museum day",
		Description: "bring lunch",
		CreatedBy:   "teacher-1",
		StartTime:   start,
		EndTime:     end,
	})
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}
	if created.InviteCode == "" {
		t.Fatalf("expected invite code for QR join")
	}
	if created.Status != StatusPlanned {
		t.Fatalf("expected derived planned status")
	}

	mock.ExpectQuery(`SELECT id, name, description, created_by`).
		WithArgs(created.ID).
		WillReturnRows(pgxmock.NewRows(tripColumns).
			AddRow(created.ID, created.Name, created.Description, created.CreatedBy, start, end, created.Status, false, created.InviteCode, created.CreatedAt))

	loaded, err := svc.GetTrip(context.Background(), created.ID)
	if err != nil || loaded.ID != created.ID {
		t.Fatalf("get trip: %v %v", loaded, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateTripValidation(t *testing.T) {
	svc := NewService(newMock(t))

	if _, err := svc.CreateTrip(context.Background(), Trip{Name: "x"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	start := time.Now()
	if _, err := svc.CreateTrip(context.Background(), Trip{
		Name: "x", CreatedBy: "t", StartTime: start, EndTime: start,
	}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for empty window, got %v", err)
	}
}

func TestUpdateCancelDelete(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(time.Hour)

	mock.ExpectQuery(`SELECT id, name, description, created_by`).
		WithArgs("trip-1").
		WillReturnRows(pgxmock.NewRows(tripColumns).
			AddRow("trip-1", "Trip", "", "teacher-1", start, end, StatusOngoing, false, "code-1", time.Now()))
	mock.ExpectExec(`UPDATE trips`).
		WithArgs("trip-1", "Zoo visit", "", start, end, StatusOngoing).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	updated, err := svc.UpdateTrip(context.Background(), "trip-1", Trip{Name: "Zoo visit"})
	if err != nil || updated.Name != "Zoo visit" {
		t.Fatalf("update trip: %v %v", updated, err)
	}

	mock.ExpectExec(`UPDATE trips SET cancelled=true`).
		WithArgs("trip-1", StatusCancelled).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	if err := svc.Cancel(context.Background(), "trip-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	mock.ExpectExec(`UPDATE trips SET is_deleted=true`).
		WithArgs("trip-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	if err := svc.DeleteTrip(context.Background(), "trip-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	mock.ExpectExec(`UPDATE trips SET cancelled=true`).
		WithArgs("trip-404", StatusCancelled).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	if err := svc.Cancel(context.Background(), "trip-404"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestJoinByCode(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	start := time.Now().Add(time.Hour)
	end := start.Add(2 * time.Hour)

	mock.ExpectQuery(`SELECT id, name, description, created_by`).
		WithArgs("code-1").
		WillReturnRows(pgxmock.NewRows(tripColumns).
			AddRow("trip-1", "Trip", "", "teacher-1", start, end, StatusPlanned, false, "code-1", time.Now()))
	mock.ExpectExec(`INSERT INTO trip_participants`).
		WithArgs("trip-1", "student-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	joined, err := svc.JoinByCode(context.Background(), "code-1", "student-1")
	if err != nil || joined.ID != "trip-1" {
		t.Fatalf("join: %v %v", joined, err)
	}

	mock.ExpectQuery(`SELECT id, name, description, created_by`).
		WithArgs("bad-code").
		WillReturnError(pgx.ErrNoRows)
	if _, err := svc.JoinByCode(context.Background(), "bad-code", "student-1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not-found for bad code, got %v", err)
	}

	mock.ExpectQuery(`SELECT id, name, description, created_by`).
		WithArgs("code-2").
		WillReturnRows(pgxmock.NewRows(tripColumns).
			AddRow("trip-2", "Trip", "", "teacher-1", start, end, StatusCancelled, true, "code-2", time.Now()))
	if _, err := svc.JoinByCode(context.Background(), "code-2", "student-1"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict for cancelled trip, got %v", err)
	}
}

func TestParticipants(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`SELECT trip_id, user_id, joined_at`).
		WithArgs("trip-1").
		WillReturnRows(pgxmock.NewRows([]string{"trip_id", "user_id", "joined_at"}).
			AddRow("trip-1", "student-1", time.Now()).
			AddRow("trip-1", "student-2", time.Now()))

	out, err := svc.Participants(context.Background(), "trip-1")
	if err != nil || len(out) != 2 {
		t.Fatalf("participants: %v %v", out, err)
	}
}
