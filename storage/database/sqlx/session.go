package sqlxrepos

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"context"

	"github.com/tutorlink/backend/core"
	"github.com/tutorlink/backend/core/session"
)

type sessionRepository struct {
	exec core.DBExecutor
}

var _ session.Repository = (*sessionRepository)(nil)

func NewSessionRepository(exec core.DBExecutor) *sessionRepository {
	return &sessionRepository{exec: exec}
}

type sessionRow struct {
	ID            string         `db:"id"`
	StudentID     string         `db:"student_id"`
	TutorID       string         `db:"tutor_id"`
	Subject       string         `db:"subject"`
	GradeLevel    string         `db:"grade_level"`
	ScheduledAt   time.Time      `db:"scheduled_at"`
	Location      string         `db:"location"`
	PricePerHour  float64        `db:"price_per_hour"`
	Status        string         `db:"status"`
	PaymentOption sql.NullString `db:"payment_option"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

type sessionDetailRow struct {
	sessionRow
	StudentName string `db:"student_name"`
	TutorName   string `db:"tutor_name"`
}

func (repo sessionRepository) row(sess session.Session) sessionRow {
	return sessionRow{
		ID:            sess.ID,
		StudentID:     sess.StudentID,
		TutorID:       sess.TutorID,
		Subject:       sess.Subject,
		GradeLevel:    sess.GradeLevel,
		ScheduledAt:   sess.ScheduledAt.UTC(),
		Location:      sess.Location,
		PricePerHour:  sess.PricePerHour,
		Status:        string(sess.Status),
		PaymentOption: sql.NullString{String: string(sess.PaymentOption), Valid: sess.PaymentOption != ""},
		CreatedAt:     sess.CreatedAt.UTC(),
		UpdatedAt:     sess.UpdatedAt.UTC(),
	}
}

func (repo sessionRepository) unrow(r sessionRow) session.Session {
	return session.Session{
		ID:            r.ID,
		StudentID:     r.StudentID,
		TutorID:       r.TutorID,
		Subject:       r.Subject,
		GradeLevel:    r.GradeLevel,
		ScheduledAt:   r.ScheduledAt,
		Location:      r.Location,
		PricePerHour:  r.PricePerHour,
		Status:        session.Status(r.Status),
		PaymentOption: session.PaymentOption(r.PaymentOption.String),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (repo sessionRepository) CreateSession(ctx context.Context, sess session.Session) (session.Session, error) {
	r := repo.row(sess)
	const query = `
		INSERT INTO session (id, student_id, tutor_id, subject, grade_level, scheduled_at, location,
		                     price_per_hour, status, payment_option, created_at, updated_at)
		VALUES (:id, :student_id, :tutor_id, :subject, :grade_level, :scheduled_at, :location,
		        :price_per_hour, :status, :payment_option, :created_at, :updated_at)`
	if _, err := sqlxNamedExec(ctx, repo.exec, query, r); err != nil {
		return session.Session{}, core.NewTransportError(err, "inserting session")
	}
	return repo.unrow(r), nil
}

func (repo sessionRepository) GetSessionByID(ctx context.Context, id string) (session.Session, error) {
	var r sessionRow
	if err := repo.exec.GetContext(ctx, &r, `SELECT * FROM session WHERE id = $1`, id); err != nil {
		return session.Session{}, trapNoRowsErr(err, session.ErrNotFound, "getting session by id")
	}
	return repo.unrow(r), nil
}

func (repo sessionRepository) QuerySessions(ctx context.Context, filter session.QueryFilter, ordering ...core.DBOrdering) ([]session.Detail, error) {
	var (
		clauses []string
		args    []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.StudentID != "" {
		clauses = append(clauses, "s.student_id = "+arg(filter.StudentID))
	}
	if filter.TutorID != "" {
		clauses = append(clauses, "s.tutor_id = "+arg(filter.TutorID))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, st := range filter.Statuses {
			statuses = append(statuses, string(st))
		}
		clauses = append(clauses, "s.status = ANY ("+arg(pqStringArray(statuses))+")")
	}

	query := `
		SELECT s.*, st.name AS student_name, tu.name AS tutor_name
		FROM session s
		INNER JOIN app_user st ON st.id = s.student_id
		INNER JOIN app_user tu ON tu.id = s.tutor_id`
	if len(clauses) > 0 {
		query += "\nWHERE " + strings.Join(clauses, " AND ")
	}
	if len(ordering) > 0 {
		orders := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orders = append(orders, "s."+ord.String())
		}
		query += "\nORDER BY " + strings.Join(orders, ", ")
	} else {
		query += "\nORDER BY s.created_at DESC"
	}

	var rows []sessionDetailRow
	if err := repo.exec.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, core.NewTransportError(err, "querying sessions")
	}

	details := make([]session.Detail, 0, len(rows))
	for _, r := range rows {
		details = append(details, session.Detail{
			Session:     repo.unrow(r.sessionRow),
			StudentName: r.StudentName,
			TutorName:   r.TutorName,
		})
	}
	return details, nil
}

// UpdateSessionStatus performs a compare-and-swap on the status column. A
// matched-but-stale row yields session.ErrStaleStatus so callers can surface a
// conflict instead of silently losing a concurrent transition.
func (repo sessionRepository) UpdateSessionStatus(ctx context.Context, id string, expected, target session.Status) (session.Session, error) {
	const query = `
		UPDATE session
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`
	res, err := repo.exec.ExecContext(ctx, query, string(target), time.Now().UTC(), id, string(expected))
	if err != nil {
		return session.Session{}, core.NewTransportError(err, "updating session status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return session.Session{}, repo.staleOrNotFound(ctx, id)
	}
	return repo.GetSessionByID(ctx, id)
}

func (repo sessionRepository) SetSessionPaymentOption(ctx context.Context, id string, option session.PaymentOption) (session.Session, error) {
	const query = `
		UPDATE session
		SET payment_option = $1, updated_at = $2
		WHERE id = $3 AND status = $4 AND payment_option IS NULL`
	res, err := repo.exec.ExecContext(ctx, query, string(option), time.Now().UTC(), id, string(session.StatusAccepted))
	if err != nil {
		return session.Session{}, core.NewTransportError(err, "setting session payment option")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return session.Session{}, repo.staleOrNotFound(ctx, id)
	}
	return repo.GetSessionByID(ctx, id)
}

func (repo sessionRepository) staleOrNotFound(ctx context.Context, id string) error {
	if _, err := repo.GetSessionByID(ctx, id); err != nil {
		return err
	}
	return session.ErrStaleStatus
}
