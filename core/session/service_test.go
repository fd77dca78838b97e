package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tutorlink/backend/core"
	"github.com/tutorlink/backend/core/directory"
	"github.com/tutorlink/backend/core/user"
)

// in-memory mocks, just enough for the service tests

type repoMock struct {
	sessions  map[string]*Session
	updateErr error // forced result for the next status CAS
}

func newRepoMock() *repoMock {
	return &repoMock{sessions: make(map[string]*Session)}
}

func (m *repoMock) CreateSession(ctx context.Context, sess Session) (Session, error) {
	m.sessions[sess.ID] = &sess
	return sess, nil
}

func (m *repoMock) GetSessionByID(ctx context.Context, id string) (Session, error) {
	if sess, ok := m.sessions[id]; ok {
		return *sess, nil
	}
	return Session{}, ErrNotFound
}

func (m *repoMock) QuerySessions(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Detail, error) {
	var details []Detail
	for _, sess := range m.sessions {
		if filter.StudentID != "" && sess.StudentID != filter.StudentID {
			continue
		}
		if filter.TutorID != "" && sess.TutorID != filter.TutorID {
			continue
		}
		details = append(details, Detail{Session: *sess})
	}
	return details, nil
}

func (m *repoMock) UpdateSessionStatus(ctx context.Context, id string, expected, target Status) (Session, error) {
	if m.updateErr != nil {
		err := m.updateErr
		m.updateErr = nil
		return Session{}, err
	}
	sess, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if sess.Status != expected {
		return Session{}, ErrStaleStatus
	}
	sess.Status = target
	sess.UpdatedAt = time.Now().UTC()
	return *sess, nil
}

func (m *repoMock) SetSessionPaymentOption(ctx context.Context, id string, option PaymentOption) (Session, error) {
	sess, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if sess.Status != StatusAccepted || sess.PaymentOption != "" {
		return Session{}, ErrStaleStatus
	}
	sess.PaymentOption = option
	sess.UpdatedAt = time.Now().UTC()
	return *sess, nil
}

type usrRepoMock struct {
	users map[string]user.User
}

func (m *usrRepoMock) CheckEmailUniqueness(ctx context.Context, email string, excluded ...user.User) error {
	return nil
}
func (m *usrRepoMock) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	m.users[usr.ID] = usr
	return usr, nil
}
func (m *usrRepoMock) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if usr, ok := m.users[id]; ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}
func (m *usrRepoMock) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	for _, usr := range m.users {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}
func (m *usrRepoMock) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	m.users[usr.ID] = usr
	return usr, nil
}

type dirRepoMock struct {
	portfolios map[string]directory.TutorPortfolio
}

func (m *dirRepoMock) QueryTutorProfiles(ctx context.Context) ([]directory.TutorProfile, error) {
	return nil, nil
}
func (m *dirRepoMock) GetPortfolioByTutorID(ctx context.Context, tutorID string) (directory.TutorPortfolio, error) {
	if pf, ok := m.portfolios[tutorID]; ok {
		return pf, nil
	}
	return directory.TutorPortfolio{}, directory.ErrNotFound
}
func (m *dirRepoMock) UpsertPortfolio(ctx context.Context, pf directory.TutorPortfolio) (directory.TutorPortfolio, error) {
	m.portfolios[pf.TutorID] = pf
	return pf, nil
}

type mailMock struct {
	sent []*core.EmailMessage
}

func (m *mailMock) SendMessages(messages ...*core.EmailMessage) {
	m.sent = append(m.sent, messages...)
}

type logMock struct{}

func (logMock) Enable(bool) {}
func (logMock) Debug(string, ...interface{}) {}
func (logMock) Info(string, ...interface{}) {}
func (logMock) Warn(string, ...interface{}) {}
func (logMock) Error(string, ...interface{}) {}
func (logMock) Fatal(string, ...interface{}) {}

type fixture struct {
	repo    *repoMock
	usrRepo *usrRepoMock
	dirRepo *dirRepoMock
	mail    *mailMock
	svc     Service

	student user.User
	tutor   user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:    newRepoMock(),
		usrRepo: &usrRepoMock{users: make(map[string]user.User)},
		dirRepo: &dirRepoMock{portfolios: make(map[string]directory.TutorPortfolio)},
		mail:    &mailMock{},
	}
	f.svc = NewService(f.repo, f.usrRepo, f.dirRepo, f.mail, logMock{})

	f.student = user.User{ID: uuid.New().String(), Name: "Sita", Email: "sita@test.cd", Role: user.RoleStudent, IsActive: true}
	f.tutor = user.User{ID: uuid.New().String(), Name: "Tara", Email: "tara@test.cd", Role: user.RoleTutor, IsActive: true}
	f.usrRepo.users[f.student.ID] = f.student
	f.usrRepo.users[f.tutor.ID] = f.tutor
	f.dirRepo.portfolios[f.tutor.ID] = directory.TutorPortfolio{TutorID: f.tutor.ID, Subjects: []string{"Mathematics"}, HourlyRate: 25}
	return f
}

func (f *fixture) newSession() NewSession {
	return NewSession{
		TutorID:      f.tutor.ID,
		Subject:      "Mathematics",
		GradeLevel:   "High School",
		ScheduledAt:  time.Now().Add(48 * time.Hour),
		PricePerHour: 25,
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		f := newFixture(t)
		sess, warnings, err := f.svc.Create(ctx, f.student.ID, f.newSession())
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		if sess.Status != StatusRequested {
			t.Errorf("new session status = %q, want %q", sess.Status, StatusRequested)
		}
		if sess.Location != DefaultLocation {
			t.Errorf("empty location must default to %q, got %q", DefaultLocation, sess.Location)
		}
		if len(warnings) != 0 {
			t.Errorf("unexpected warnings: %v", warnings)
		}
		if len(f.mail.sent) != 1 {
			t.Errorf("tutor should have been notified once, got %d mails", len(f.mail.sent))
		}
	})

	t.Run("tutor without portfolio yields a warning, not an error", func(t *testing.T) {
		f := newFixture(t)
		delete(f.dirRepo.portfolios, f.tutor.ID)

		sess, warnings, err := f.svc.Create(ctx, f.student.ID, f.newSession())
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		if sess.Status != StatusRequested {
			t.Errorf("new session status = %q, want %q", sess.Status, StatusRequested)
		}
		if len(warnings) != 1 || warnings[0] != WarnTutorMissingPortfolio {
			t.Errorf("warnings = %v, want [%s]", warnings, WarnTutorMissingPortfolio)
		}
	})

	t.Run("cannot book yourself", func(t *testing.T) {
		f := newFixture(t)
		ns := f.newSession()
		ns.TutorID = f.student.ID
		if _, _, err := f.svc.Create(ctx, f.student.ID, ns); !isFieldError(err, "tutor_id") {
			t.Errorf("Create() error = %v, want validation error on tutor_id", err)
		}
	})

	t.Run("unknown tutor", func(t *testing.T) {
		f := newFixture(t)
		ns := f.newSession()
		ns.TutorID = uuid.New().String()
		if _, _, err := f.svc.Create(ctx, f.student.ID, ns); !isFieldError(err, "tutor_id") {
			t.Errorf("Create() error = %v, want validation error on tutor_id", err)
		}
	})

	t.Run("booking a student account", func(t *testing.T) {
		f := newFixture(t)
		other := user.User{ID: uuid.New().String(), Name: "Hari", Email: "hari@test.cd", Role: user.RoleStudent, IsActive: true}
		f.usrRepo.users[other.ID] = other

		ns := f.newSession()
		ns.TutorID = other.ID
		if _, _, err := f.svc.Create(ctx, f.student.ID, ns); !isFieldError(err, "tutor_id") {
			t.Errorf("Create() error = %v, want validation error on tutor_id", err)
		}
	})

	t.Run("scheduled time must be in the future", func(t *testing.T) {
		f := newFixture(t)
		ns := f.newSession()
		ns.ScheduledAt = time.Now().Add(-time.Hour)
		if _, _, err := f.svc.Create(ctx, f.student.ID, ns); !isFieldError(err, "scheduled_at") {
			t.Errorf("Create() error = %v, want validation error on scheduled_at", err)
		}
	})
}

func isFieldError(err error, field string) bool {
	vErr, ok := err.(*core.ValidationError)
	if !ok {
		return false
	}
	for _, f := range vErr.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func TestService_Transition(t *testing.T) {
	ctx := context.Background()

	book := func(t *testing.T, f *fixture) Session {
		t.Helper()
		sess, _, err := f.svc.Create(ctx, f.student.ID, f.newSession())
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		return sess
	}

	t.Run("full lifecycle: requested -> accepted -> completed", func(t *testing.T) {
		f := newFixture(t)
		sess := book(t, f)

		sess, err := f.svc.Transition(ctx, sess.ID, f.tutor.ID, StatusAccepted)
		if err != nil {
			t.Fatalf("accept failed: %v", err)
		}
		if sess.Status != StatusAccepted {
			t.Fatalf("status = %q, want %q", sess.Status, StatusAccepted)
		}

		// completion only allowed once the scheduled time has passed
		if _, err = f.svc.Transition(ctx, sess.ID, f.tutor.ID, StatusCompleted); err == nil {
			t.Fatal("completing a future session must fail")
		} else if _, ok := err.(*core.PreconditionError); !ok {
			t.Fatalf("complete error = %v, want *core.PreconditionError", err)
		}

		nowFunc = func() time.Time { return time.Now().Add(72 * time.Hour) }
		defer func() { nowFunc = time.Now }()

		sess, err = f.svc.Transition(ctx, sess.ID, f.tutor.ID, StatusCompleted)
		if err != nil {
			t.Fatalf("complete failed: %v", err)
		}
		if sess.Status != StatusCompleted {
			t.Errorf("status = %q, want %q", sess.Status, StatusCompleted)
		}
	})

	t.Run("tutor rejects, terminal afterwards", func(t *testing.T) {
		f := newFixture(t)
		sess := book(t, f)

		sess, err := f.svc.Transition(ctx, sess.ID, f.tutor.ID, StatusRejected)
		if err != nil {
			t.Fatalf("reject failed: %v", err)
		}
		if !sess.Status.IsTerminal() {
			t.Errorf("%q should be terminal", sess.Status)
		}

		if _, err = f.svc.Transition(ctx, sess.ID, f.tutor.ID, StatusAccepted); err == nil {
			t.Error("transition out of a terminal status must fail")
		} else if _, ok := err.(*InvalidTransitionError); !ok {
			t.Errorf("error = %v, want *InvalidTransitionError", err)
		}
	})

	t.Run("student cancels before and after acceptance", func(t *testing.T) {
		f := newFixture(t)

		sess := book(t, f)
		if _, err := f.svc.Transition(ctx, sess.ID, f.student.ID, StatusCancelled); err != nil {
			t.Fatalf("cancelling a requested session failed: %v", err)
		}

		sess = book(t, f)
		if _, err := f.svc.Transition(ctx, sess.ID, f.tutor.ID, StatusAccepted); err != nil {
			t.Fatalf("accept failed: %v", err)
		}
		if _, err := f.svc.Transition(ctx, sess.ID, f.student.ID, StatusCancelled); err != nil {
			t.Fatalf("cancelling an accepted session failed: %v", err)
		}
	})

	t.Run("actor scoping", func(t *testing.T) {
		f := newFixture(t)
		sess := book(t, f)

		// only the tutor may accept
		if _, err := f.svc.Transition(ctx, sess.ID, f.student.ID, StatusAccepted); err == nil {
			t.Error("student must not accept")
		} else if _, ok := err.(*InvalidTransitionError); !ok {
			t.Errorf("error = %v, want *InvalidTransitionError", err)
		}
		// only the student may cancel
		if _, err := f.svc.Transition(ctx, sess.ID, f.tutor.ID, StatusCancelled); err == nil {
			t.Error("tutor must not cancel")
		} else if _, ok := err.(*InvalidTransitionError); !ok {
			t.Errorf("error = %v, want *InvalidTransitionError", err)
		}
		// a failed transition leaves the record untouched
		if cur, _ := f.repo.GetSessionByID(ctx, sess.ID); cur.Status != StatusRequested {
			t.Errorf("status changed to %q after failed transitions", cur.Status)
		}
	})

	t.Run("unrelated identity", func(t *testing.T) {
		f := newFixture(t)
		sess := book(t, f)

		if _, err := f.svc.Transition(ctx, sess.ID, uuid.New().String(), StatusAccepted); err == nil {
			t.Error("an unrelated identity must not transition the session")
		} else if _, ok := err.(*core.AuthorizationError); !ok {
			t.Errorf("error = %v, want *core.AuthorizationError", err)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newFixture(t)
		sess := book(t, f)

		if _, err := f.svc.Transition(ctx, sess.ID, f.tutor.ID, Status("confirmed")); !isFieldError(err, "status") {
			t.Errorf("error = %v, want validation error on status", err)
		}
	})

	t.Run("concurrent update surfaces a conflict", func(t *testing.T) {
		f := newFixture(t)
		sess := book(t, f)

		f.repo.updateErr = ErrStaleStatus
		if _, err := f.svc.Transition(ctx, sess.ID, f.tutor.ID, StatusAccepted); err == nil {
			t.Error("stale status must surface as a conflict")
		} else if _, ok := err.(*core.ConflictError); !ok {
			t.Errorf("error = %v, want *core.ConflictError", err)
		}
	})

	t.Run("counterparty is notified", func(t *testing.T) {
		f := newFixture(t)
		sess := book(t, f)

		mails := len(f.mail.sent)
		if _, err := f.svc.Transition(ctx, sess.ID, f.tutor.ID, StatusAccepted); err != nil {
			t.Fatalf("accept failed: %v", err)
		}
		if len(f.mail.sent) != mails+1 {
			t.Errorf("student should have been notified, got %d new mails", len(f.mail.sent)-mails)
		}
	})
}

func TestService_SetPaymentOption(t *testing.T) {
	ctx := context.Background()

	accepted := func(t *testing.T, f *fixture) Session {
		t.Helper()
		sess, _, err := f.svc.Create(ctx, f.student.ID, f.newSession())
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		if sess, err = f.svc.Transition(ctx, sess.ID, f.tutor.ID, StatusAccepted); err != nil {
			t.Fatalf("accept failed: %v", err)
		}
		return sess
	}

	t.Run("student picks an option once accepted", func(t *testing.T) {
		f := newFixture(t)
		sess := accepted(t, f)

		sess, err := f.svc.SetPaymentOption(ctx, sess.ID, f.student.ID, PaymentHalfUpfront)
		if err != nil {
			t.Fatalf("SetPaymentOption() failed: %v", err)
		}
		if sess.PaymentOption != PaymentHalfUpfront {
			t.Errorf("payment option = %q, want %q", sess.PaymentOption, PaymentHalfUpfront)
		}
	})

	t.Run("write-once", func(t *testing.T) {
		f := newFixture(t)
		sess := accepted(t, f)

		if _, err := f.svc.SetPaymentOption(ctx, sess.ID, f.student.ID, PaymentHalfUpfront); err != nil {
			t.Fatalf("SetPaymentOption() failed: %v", err)
		}
		if _, err := f.svc.SetPaymentOption(ctx, sess.ID, f.student.ID, PaymentFullUpfront); err == nil {
			t.Error("second choice must fail")
		} else if _, ok := err.(*core.ConflictError); !ok {
			t.Errorf("error = %v, want *core.ConflictError", err)
		}
		// the original choice stands
		if cur, _ := f.repo.GetSessionByID(ctx, sess.ID); cur.PaymentOption != PaymentHalfUpfront {
			t.Errorf("payment option changed to %q", cur.PaymentOption)
		}
	})

	t.Run("only while accepted", func(t *testing.T) {
		f := newFixture(t)
		sess, _, err := f.svc.Create(ctx, f.student.ID, f.newSession())
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}

		if _, err := f.svc.SetPaymentOption(ctx, sess.ID, f.student.ID, PaymentThirdUpfront); err == nil {
			t.Error("requested session must not take a payment option")
		} else if _, ok := err.(*core.PreconditionError); !ok {
			t.Errorf("error = %v, want *core.PreconditionError", err)
		}
	})

	t.Run("only the booking student", func(t *testing.T) {
		f := newFixture(t)
		sess := accepted(t, f)

		if _, err := f.svc.SetPaymentOption(ctx, sess.ID, f.tutor.ID, PaymentFullUpfront); err == nil {
			t.Error("tutor must not pick the payment option")
		} else if _, ok := err.(*core.AuthorizationError); !ok {
			t.Errorf("error = %v, want *core.AuthorizationError", err)
		}
	})

	t.Run("unknown option", func(t *testing.T) {
		f := newFixture(t)
		sess := accepted(t, f)

		if _, err := f.svc.SetPaymentOption(ctx, sess.ID, f.student.ID, PaymentOption("60% upfront")); !isFieldError(err, "payment_option") {
			t.Errorf("error = %v, want validation error on payment_option", err)
		}
	})
}

func TestService_GetByID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sess, _, err := f.svc.Create(ctx, f.student.ID, f.newSession())
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if _, err = f.svc.GetByID(ctx, sess.ID, f.student.ID); err != nil {
		t.Errorf("the student should see their session: %v", err)
	}
	if _, err = f.svc.GetByID(ctx, sess.ID, f.tutor.ID); err != nil {
		t.Errorf("the tutor should see their session: %v", err)
	}
	if _, err = f.svc.GetByID(ctx, sess.ID, uuid.New().String()); err == nil {
		t.Error("an unrelated identity must not see the session")
	} else if _, ok := err.(*core.AuthorizationError); !ok {
		t.Errorf("error = %v, want *core.AuthorizationError", err)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name  string
		from  Status
		to    Status
		actor Actor
		want  bool
	}{
		{"tutor accepts requested", StatusRequested, StatusAccepted, ActorTutor, true},
		{"tutor rejects requested", StatusRequested, StatusRejected, ActorTutor, true},
		{"student cancels requested", StatusRequested, StatusCancelled, ActorStudent, true},
		{"student cancels accepted", StatusAccepted, StatusCancelled, ActorStudent, true},
		{"tutor completes accepted", StatusAccepted, StatusCompleted, ActorTutor, true},
		{"student accepts", StatusRequested, StatusAccepted, ActorStudent, false},
		{"tutor cancels", StatusRequested, StatusCancelled, ActorTutor, false},
		{"student completes", StatusAccepted, StatusCompleted, ActorStudent, false},
		{"requested to completed", StatusRequested, StatusCompleted, ActorTutor, false},
		{"completed is terminal", StatusCompleted, StatusCancelled, ActorStudent, false},
		{"rejected is terminal", StatusRejected, StatusAccepted, ActorTutor, false},
		{"cancelled is terminal", StatusCancelled, StatusAccepted, ActorTutor, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to, tt.actor); got != tt.want {
				t.Errorf("CanTransition(%q, %q, %v) = %v, want %v", tt.from, tt.to, tt.actor, got, tt.want)
			}
		})
	}
}
