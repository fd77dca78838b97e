package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tutorlink/backend/core/directory"
	"github.com/tutorlink/backend/core/session"
	"github.com/tutorlink/backend/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:           name,
		Email:          email,
		Role:           role,
		IsActive:       isActive,
		EmailConfirmed: true,
		CreatedAt:      tstamp,
		UpdatedAt:      tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreatePortfolio(
	t *testing.T,
	repo directory.Repository,
	tutorID string,
	subjects []string,
	hourlyRate float64,
	gradeLevel, location string,
) directory.TutorPortfolio {
	t.Helper()

	now := time.Now().UTC()
	pf, err := repo.UpsertPortfolio(context.Background(), directory.TutorPortfolio{
		TutorID:           tutorID,
		Subjects:          subjects,
		HourlyRate:        hourlyRate,
		GradeLevel:        gradeLevel,
		Location:          location,
		AvailabilityStart: "09:00",
		AvailabilityEnd:   "17:00",
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		t.Fatalf("CreatePortfolio() failed: %v", err)
	}
	return pf
}

func CreateSession(
	t *testing.T,
	repo session.Repository,
	studentID, tutorID string,
	status session.Status,
	scheduledAt time.Time,
) session.Session {
	t.Helper()

	now := time.Now().UTC()
	sess := session.Session{
		ID:           uuid.New().String(),
		StudentID:    studentID,
		TutorID:      tutorID,
		Subject:      "Mathematics",
		ScheduledAt:  scheduledAt.UTC(),
		Location:     session.DefaultLocation,
		PricePerHour: 25,
		Status:       session.StatusRequested,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	sess, err := repo.CreateSession(context.Background(), sess)
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	// walk the state machine to reach the wanted status
	for _, st := range pathTo(status) {
		if sess, err = repo.UpdateSessionStatus(context.Background(), sess.ID, sess.Status, st); err != nil {
			t.Fatalf("CreateSession() failed: %v", err)
		}
	}
	return sess
}

func pathTo(status session.Status) []session.Status {
	switch status {
	case session.StatusAccepted:
		return []session.Status{session.StatusAccepted}
	case session.StatusRejected:
		return []session.Status{session.StatusRejected}
	case session.StatusCancelled:
		return []session.Status{session.StatusCancelled}
	case session.StatusCompleted:
		return []session.Status{session.StatusAccepted, session.StatusCompleted}
	}
	return nil
}
