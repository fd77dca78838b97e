package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/tutorlink/backend/core"
	"github.com/tutorlink/backend/core/session"
)

type sessionRepository struct {
	db *DB
}

var _ session.Repository = (*sessionRepository)(nil)

func NewSessionRepository(db *DB) session.Repository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) CreateSession(ctx context.Context, sess session.Session) (session.Session, error) {
	repo.db.session.Lock()
	defer repo.db.session.Unlock()

	repo.db.session.table[sess.ID] = &sess
	return sess, nil
}

func (repo *sessionRepository) GetSessionByID(ctx context.Context, id string) (session.Session, error) {
	repo.db.session.RLock()
	defer repo.db.session.RUnlock()

	if sess, ok := repo.db.session.table[id]; ok {
		return *sess, nil
	}
	return session.Session{}, session.ErrNotFound
}

func (repo *sessionRepository) QuerySessions(ctx context.Context, filter session.QueryFilter, ordering ...core.DBOrdering) ([]session.Detail, error) {
	repo.db.session.RLock()
	sessions := make([]session.Session, 0, len(repo.db.session.table))
	for _, sess := range repo.db.session.table {
		if filter.StudentID != "" && sess.StudentID != filter.StudentID {
			continue
		}
		if filter.TutorID != "" && sess.TutorID != filter.TutorID {
			continue
		}
		if len(filter.Statuses) > 0 && !statusIn(sess.Status, filter.Statuses) {
			continue
		}
		sessions = append(sessions, *sess)
	}
	repo.db.session.RUnlock()

	// newest first, the default ordering of the sql implementation
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.After(sessions[j].CreatedAt) })

	usrRepo := NewUserRepository(repo.db)
	details := make([]session.Detail, 0, len(sessions))
	for _, sess := range sessions {
		detail := session.Detail{Session: sess}
		if usr, err := usrRepo.GetUserByID(ctx, sess.StudentID); err == nil {
			detail.StudentName = usr.Name
		}
		if usr, err := usrRepo.GetUserByID(ctx, sess.TutorID); err == nil {
			detail.TutorName = usr.Name
		}
		details = append(details, detail)
	}
	return details, nil
}

func statusIn(status session.Status, statuses []session.Status) bool {
	for _, st := range statuses {
		if st == status {
			return true
		}
	}
	return false
}

func (repo *sessionRepository) UpdateSessionStatus(ctx context.Context, id string, expected, target session.Status) (session.Session, error) {
	repo.db.session.Lock()
	defer repo.db.session.Unlock()

	sess, ok := repo.db.session.table[id]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	if sess.Status != expected {
		return session.Session{}, session.ErrStaleStatus
	}
	sess.Status = target
	sess.UpdatedAt = time.Now().UTC()
	return *sess, nil
}

func (repo *sessionRepository) SetSessionPaymentOption(ctx context.Context, id string, option session.PaymentOption) (session.Session, error) {
	repo.db.session.Lock()
	defer repo.db.session.Unlock()

	sess, ok := repo.db.session.table[id]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	if sess.Status != session.StatusAccepted || sess.PaymentOption != "" {
		return session.Session{}, session.ErrStaleStatus
	}
	sess.PaymentOption = option
	sess.UpdatedAt = time.Now().UTC()
	return *sess, nil
}
