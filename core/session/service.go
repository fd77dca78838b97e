package session

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/tutorlink/backend/core"
	"github.com/tutorlink/backend/core/directory"
	"github.com/tutorlink/backend/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("session not found")

	// ErrStaleStatus is returned by repositories when a compare-and-set update
	// finds the stored status no longer matches what the caller observed.
	ErrStaleStatus = errors.New("session status changed concurrently")
)

// WarnTutorMissingPortfolio is surfaced (not raised) when a session is booked
// against a tutor who has not published a portfolio yet.
const WarnTutorMissingPortfolio = "tutor has not published a portfolio yet"

type (
	Repository interface {
		CreateSession(ctx context.Context, s Session) (Session, error)
		GetSessionByID(ctx context.Context, id string) (Session, error)
		// QuerySessions returns sessions matching the filter joined with both
		// parties' names, in one query.
		QuerySessions(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Detail, error)
		// UpdateSessionStatus transitions the session to `target` only if its
		// stored status still equals `expected`, returning ErrStaleStatus
		// otherwise. No partial writes.
		UpdateSessionStatus(ctx context.Context, id string, expected, target Status) (Session, error)
		// SetSessionPaymentOption records the payment option only if the session
		// is still `accepted` and no option has been recorded, returning
		// ErrStaleStatus otherwise.
		SetSessionPaymentOption(ctx context.Context, id string, option PaymentOption) (Session, error)
	}

	Service interface {
		Create(ctx context.Context, studentID string, ns NewSession) (Session, []string, error)
		Transition(ctx context.Context, sessionID, actorID string, target Status) (Session, error)
		SetPaymentOption(ctx context.Context, sessionID, actorID string, option PaymentOption) (Session, error)
		GetByID(ctx context.Context, sessionID, actorID string) (Session, error)
		QueryByStudent(ctx context.Context, studentID string, ordering ...core.DBOrdering) ([]Detail, error)
		QueryByTutor(ctx context.Context, tutorID string, ordering ...core.DBOrdering) ([]Detail, error)
	}

	service struct {
		repo    Repository
		usrRepo user.Repository
		dirRepo directory.Repository
		mailSvc core.EmailService
		logger  core.Logger
	}
)

var _ Service = (*service)(nil)

var nowFunc = time.Now // mockable

func NewService(
	repo Repository,
	usrRepo user.Repository,
	dirRepo directory.Repository,
	mailSvc core.EmailService,
	logger core.Logger,
) Service {
	return &service{
		repo:    repo,
		usrRepo: usrRepo,
		dirRepo: dirRepo,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

// Create books a new session on behalf of studentID. Sessions always start
// out `requested`. A tutor without a portfolio does not block creation; the
// returned warnings tell the caller about it.
func (svc *service) Create(ctx context.Context, studentID string, ns NewSession) (Session, []string, error) {
	if err := ns.Validate(); err != nil {
		return Session{}, nil, err
	}
	if ns.TutorID == studentID {
		return Session{}, nil, core.NewValidationError(nil, core.FieldError{
			Field: "tutor_id",
			Error: "cannot book a session with yourself",
		})
	}

	tutor, err := svc.usrRepo.GetUserByID(ctx, ns.TutorID)
	if err != nil {
		if err == user.ErrNotFound {
			return Session{}, nil, core.NewValidationError(err, core.FieldError{
				Field: "tutor_id",
				Error: "unknown tutor",
			})
		}
		return Session{}, nil, err
	}
	if !tutor.IsTutor() {
		return Session{}, nil, core.NewValidationError(nil, core.FieldError{
			Field: "tutor_id",
			Error: "not a tutor account",
		})
	}

	var warnings []string
	if _, err = svc.dirRepo.GetPortfolioByTutorID(ctx, ns.TutorID); err != nil {
		if err != directory.ErrNotFound {
			return Session{}, nil, err
		}
		warnings = append(warnings, WarnTutorMissingPortfolio)
	}

	location := ns.Location
	if location == "" {
		location = DefaultLocation
	}
	now := time.Now().UTC()
	sess := Session{
		ID:           uuid.New().String(),
		StudentID:    studentID,
		TutorID:      ns.TutorID,
		Subject:      ns.Subject,
		GradeLevel:   ns.GradeLevel,
		ScheduledAt:  ns.ScheduledAt.UTC(),
		Location:     location,
		PricePerHour: ns.PricePerHour,
		Status:       StatusRequested,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	sess, err = svc.repo.CreateSession(ctx, sess)
	if err != nil {
		return Session{}, nil, err
	}

	svc.logger.Info(
		fmt.Sprintf("session %s requested: student %s -> tutor %s (%s)", sess.ID, studentID, sess.TutorID, sess.Subject),
	)
	svc.notify(sess, tutor, "You have a new session request.")

	return sess, warnings, nil
}

// Transition moves the session to `target` on behalf of actorID, enforcing
// the transition table and a compare-and-set on the status the actor observed.
func (svc *service) Transition(ctx context.Context, sessionID, actorID string, target Status) (Session, error) {
	if !target.IsValid() {
		return Session{}, core.NewValidationError(nil, core.FieldError{
			Field: "status",
			Error: fmt.Sprintf("unknown status %q", target),
		})
	}

	sess, err := svc.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if !sess.IsParty(actorID) {
		return Session{}, core.NewAuthorizationError("not a party to this session")
	}

	actor := sess.ActorFor(actorID)
	if !CanTransition(sess.Status, target, actor) {
		return Session{}, &InvalidTransitionError{From: sess.Status, To: target}
	}
	// a session can only be completed once its scheduled time has passed
	if target == StatusCompleted && !sess.ScheduledAt.Before(nowFunc()) {
		return Session{}, core.NewPreconditionError("session has not taken place yet")
	}

	updated, err := svc.repo.UpdateSessionStatus(ctx, sessionID, sess.Status, target)
	if err != nil {
		if err == ErrStaleStatus {
			return Session{}, core.NewConflictError("session was updated by the other party, reload and retry")
		}
		return Session{}, err
	}

	svc.logger.Info(fmt.Sprintf("session %s: %s -> %s by %s", sessionID, sess.Status, target, actorID))
	svc.notifyCounterparty(ctx, updated, actorID, target)

	return updated, nil
}

// SetPaymentOption records the student's chosen payment split for an accepted
// session. The option is write-once.
func (svc *service) SetPaymentOption(ctx context.Context, sessionID, actorID string, option PaymentOption) (Session, error) {
	if !option.IsValid() {
		return Session{}, core.NewValidationError(nil, core.FieldError{
			Field: "payment_option",
			Error: fmt.Sprintf("unknown payment option %q", option),
		})
	}

	sess, err := svc.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if actorID != sess.StudentID {
		return Session{}, core.NewAuthorizationError("only the booking student may pick a payment option")
	}
	if sess.PaymentOption != "" {
		return Session{}, core.NewConflictError("payment option already chosen")
	}
	if sess.Status != StatusAccepted {
		return Session{}, core.NewPreconditionError("payment option can only be chosen for an accepted session")
	}

	updated, err := svc.repo.SetSessionPaymentOption(ctx, sessionID, option)
	if err != nil {
		if err == ErrStaleStatus {
			return Session{}, core.NewConflictError("session was updated by the other party, reload and retry")
		}
		return Session{}, err
	}

	svc.logger.Info(fmt.Sprintf("session %s: payment option %q chosen", sessionID, option))
	return updated, nil
}

// GetByID returns a single session, visible only to its two parties.
func (svc *service) GetByID(ctx context.Context, sessionID, actorID string) (Session, error) {
	sess, err := svc.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if !sess.IsParty(actorID) {
		return Session{}, core.NewAuthorizationError("not a party to this session")
	}
	return sess, nil
}

func (svc *service) QueryByStudent(ctx context.Context, studentID string, ordering ...core.DBOrdering) ([]Detail, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "scheduled_at", Ascending: true}}
	}
	return svc.repo.QuerySessions(ctx, QueryFilter{StudentID: studentID}, ordering...)
}

func (svc *service) QueryByTutor(ctx context.Context, tutorID string, ordering ...core.DBOrdering) ([]Detail, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "scheduled_at", Ascending: true}}
	}
	return svc.repo.QuerySessions(ctx, QueryFilter{TutorID: tutorID}, ordering...)
}

// notifyCounterparty emails the party that did not act. Best effort: delivery
// runs in the background and failures only get logged.
func (svc *service) notifyCounterparty(ctx context.Context, sess Session, actorID string, target Status) {
	otherID := sess.StudentID
	if actorID == sess.StudentID {
		otherID = sess.TutorID
	}
	other, err := svc.usrRepo.GetUserByID(ctx, otherID)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("session %s: cannot notify %s: %v", sess.ID, otherID, err))
		return
	}

	var line string
	switch target {
	case StatusAccepted:
		line = "Your session request was accepted."
	case StatusRejected:
		line = "Your session request was declined."
	case StatusCancelled:
		line = "A session was cancelled."
	case StatusCompleted:
		line = "A session was marked as completed."
	default:
		return
	}
	svc.notify(sess, other, line)
}

type sessionMailData struct {
	Name        string
	AppName     string
	Line        string
	Subject     string
	ScheduledAt string
	Location    string
}

func (svc *service) notify(sess Session, to user.User, line string) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: to.Name, Address: to.Email}},
		Subject:      "Session update",
		TemplateName: "session-update",
		TemplateData: sessionMailData{
			Name:        to.Name,
			AppName:     core.Conf.AppName,
			Line:        line,
			Subject:     sess.Subject,
			ScheduledAt: sess.ScheduledAt.Format(time.RFC1123),
			Location:    sess.Location,
		},
	})
}
