package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tutorlink/backend/core"
)

var (
	// errors
	ErrNotFound = errors.New("portfolio not found")
)

type (
	Repository interface {
		// QueryTutorProfiles returns the public profile of every tutor with a
		// portfolio, portfolio fields joined with the account name in one query.
		QueryTutorProfiles(ctx context.Context) ([]TutorProfile, error)
		GetPortfolioByTutorID(ctx context.Context, tutorID string) (TutorPortfolio, error)
		// UpsertPortfolio replaces the tutor's portfolio wholesale, creating it
		// when absent. Keyed by TutorID.
		UpsertPortfolio(ctx context.Context, pf TutorPortfolio) (TutorPortfolio, error)
	}

	Service interface {
		Search(ctx context.Context, criteria SearchCriteria) ([]TutorProfile, error)
		GetPortfolio(ctx context.Context, tutorID string) (TutorPortfolio, error)
		UpsertPortfolio(ctx context.Context, actorID, tutorID string, in PortfolioInput) (TutorPortfolio, error)
	}

	service struct {
		repo   Repository
		logger core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, logger core.Logger) Service {
	return &service{repo: repo, logger: logger}
}

// Search fetches the directory once and narrows it in memory with Filter.
func (svc *service) Search(ctx context.Context, criteria SearchCriteria) ([]TutorProfile, error) {
	criteria.Clean()
	tutors, err := svc.repo.QueryTutorProfiles(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(tutors, criteria), nil
}

func (svc *service) GetPortfolio(ctx context.Context, tutorID string) (TutorPortfolio, error) {
	return svc.repo.GetPortfolioByTutorID(ctx, tutorID)
}

// UpsertPortfolio creates or fully replaces the portfolio owned by tutorID.
// The acting identity must be the tutor themselves.
func (svc *service) UpsertPortfolio(ctx context.Context, actorID, tutorID string, in PortfolioInput) (TutorPortfolio, error) {
	if actorID != tutorID {
		return TutorPortfolio{}, core.NewAuthorizationError("cannot edit another tutor's portfolio")
	}
	if err := in.Validate(); err != nil {
		return TutorPortfolio{}, err
	}
	if in.HourlyRate < core.Conf.MinHourlyRate {
		return TutorPortfolio{}, core.NewValidationError(nil, core.FieldError{
			Field: "hourly_rate",
			Error: fmt.Sprintf("hourly rate must be at least %v", core.Conf.MinHourlyRate),
		})
	}
	if in.AvailabilityEnd <= in.AvailabilityStart {
		return TutorPortfolio{}, core.NewValidationError(nil, core.FieldError{
			Field: "availability_end",
			Error: "availability must end after it starts",
		})
	}

	now := time.Now().UTC()
	pf := TutorPortfolio{
		TutorID:           tutorID,
		Subjects:          in.Subjects,
		Experience:        in.Experience,
		HourlyRate:        in.HourlyRate,
		GradeLevel:        in.GradeLevel,
		Location:          in.Location,
		ImageURL:          in.ImageURL,
		AvailabilityStart: in.AvailabilityStart,
		AvailabilityEnd:   in.AvailabilityEnd,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return svc.repo.UpsertPortfolio(ctx, pf)
}
