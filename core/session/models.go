package session

import (
	"fmt"
	"time"

	"github.com/tutorlink/backend/core"
)

// Status of a tutoring session. requested -> accepted -> completed is the
// happy path; rejected and cancelled are terminal branches.
type Status string

const (
	StatusRequested Status = "requested"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var Statuses = []Status{StatusRequested, StatusAccepted, StatusRejected, StatusCompleted, StatusCancelled}

func (s Status) IsValid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition may leave this status.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Actor identifies which party of a session attempts a transition.
type Actor int

const (
	ActorStudent Actor = 1 << iota
	ActorTutor
)

// transitions is the authoritative map of permitted status changes and which
// actor may invoke them.
var transitions = map[Status]map[Status]Actor{
	StatusRequested: {
		StatusAccepted:  ActorTutor,
		StatusRejected:  ActorTutor,
		StatusCancelled: ActorStudent,
	},
	StatusAccepted: {
		StatusCompleted: ActorTutor,
		StatusCancelled: ActorStudent,
	},
}

// CanTransition reports whether `actor` may move a session from `from` to `to`.
func CanTransition(from, to Status, actor Actor) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	return allowed[to]&actor != 0
}

// InvalidTransitionError reports a status change not present in the
// transition table. The session record is left untouched.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (err InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %q to %q", err.From, err.To)
}

// PaymentOption is the label of the payment split a student picked for an
// accepted session. It records intent only; no money moves.
type PaymentOption string

const (
	PaymentHalfUpfront  PaymentOption = "50% upfront"
	PaymentFullUpfront  PaymentOption = "100% upfront"
	PaymentThirdUpfront PaymentOption = "1/3 upfront"
)

var PaymentOptions = []PaymentOption{PaymentHalfUpfront, PaymentFullUpfront, PaymentThirdUpfront}

func (po PaymentOption) IsValid() bool {
	for _, known := range PaymentOptions {
		if po == known {
			return true
		}
	}
	return false
}

// DefaultLocation is used when a session is booked without a location.
const DefaultLocation = "Online"

// Session is one requested/scheduled tutoring engagement between one student
// and one tutor.
type Session struct {
	ID            string        `json:"id"`
	StudentID     string        `json:"student_id"`
	TutorID       string        `json:"tutor_id"`
	Subject       string        `json:"subject"`
	GradeLevel    string        `json:"grade_level,omitempty"`
	ScheduledAt   time.Time     `json:"scheduled_at"` // UTC
	Location      string        `json:"location"`
	PricePerHour  float64       `json:"price_per_hour"`
	Status        Status        `json:"status"`
	PaymentOption PaymentOption `json:"payment_option,omitempty"` // empty until the student picks one
	CreatedAt     time.Time     `json:"created_at"`               // UTC
	UpdatedAt     time.Time     `json:"updated_at"`               // UTC
}

// IsParty reports whether id is one of the two identities linked to the session.
func (s *Session) IsParty(id string) bool {
	return id == s.StudentID || id == s.TutorID
}

// ActorFor maps an owning identity to its session role.
func (s *Session) ActorFor(id string) Actor {
	if id == s.StudentID {
		return ActorStudent
	}
	return ActorTutor
}

// Detail is a session row joined with both parties' display names, for
// dashboard listings.
type Detail struct {
	Session
	StudentName string `json:"student_name"`
	TutorName   string `json:"tutor_name"`
}

// NewSession contains information needed to book a session.
type NewSession struct {
	TutorID      string    `json:"tutor_id" validate:"required"`
	Subject      string    `json:"subject" validate:"required,subject"`
	GradeLevel   string    `json:"grade_level" validate:"omitempty,gradelevel"`
	ScheduledAt  time.Time `json:"scheduled_at" validate:"required"`
	Location     string    `json:"location"`
	PricePerHour float64   `json:"price_per_hour" validate:"gte=0"`
}

func (ns *NewSession) Validate() error {
	ns.Subject = core.CleanString(ns.Subject)
	ns.Location = core.CleanString(ns.Location)
	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	if !ns.ScheduledAt.After(time.Now()) {
		return core.NewValidationError(nil, core.FieldError{
			Field: "scheduled_at",
			Error: "sessions must be scheduled in the future",
		})
	}
	return nil
}

// QueryFilter narrows session listings. Fields combine with AND.
type QueryFilter struct {
	StudentID string
	TutorID   string
	Statuses  []Status
}
