package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/tutorlink/backend/core"
	"github.com/tutorlink/backend/core/directory"
)

type directoryRepository struct {
	exec core.DBExecutor
}

var _ directory.Repository = (*directoryRepository)(nil)

func NewDirectoryRepository(exec core.DBExecutor) *directoryRepository {
	return &directoryRepository{exec: exec}
}

type portfolioRow struct {
	ID                string         `db:"id"`
	TutorID           string         `db:"tutor_id"`
	Subjects          pq.StringArray `db:"subjects"`
	Experience        string         `db:"experience"`
	HourlyRate        float64        `db:"hourly_rate"`
	GradeLevel        string         `db:"grade_level"`
	Location          string         `db:"location"`
	Rating            float64        `db:"rating"`
	ImageURL          string         `db:"image_url"`
	AvailabilityStart string         `db:"availability_start"`
	AvailabilityEnd   string         `db:"availability_end"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

type tutorProfileRow struct {
	portfolioRow
	Name string `db:"name"`
}

func (repo directoryRepository) row(pf directory.TutorPortfolio) portfolioRow {
	return portfolioRow{
		ID:                pf.ID,
		TutorID:           pf.TutorID,
		Subjects:          pq.StringArray(pf.Subjects),
		Experience:        pf.Experience,
		HourlyRate:        pf.HourlyRate,
		GradeLevel:        pf.GradeLevel,
		Location:          pf.Location,
		Rating:            pf.Rating,
		ImageURL:          pf.ImageURL,
		AvailabilityStart: pf.AvailabilityStart,
		AvailabilityEnd:   pf.AvailabilityEnd,
		CreatedAt:         pf.CreatedAt.UTC(),
		UpdatedAt:         pf.UpdatedAt.UTC(),
	}
}

func (repo directoryRepository) unrow(r portfolioRow) directory.TutorPortfolio {
	return directory.TutorPortfolio{
		ID:                r.ID,
		TutorID:           r.TutorID,
		Subjects:          []string(r.Subjects),
		Experience:        r.Experience,
		HourlyRate:        r.HourlyRate,
		GradeLevel:        r.GradeLevel,
		Location:          r.Location,
		Rating:            r.Rating,
		ImageURL:          r.ImageURL,
		AvailabilityStart: r.AvailabilityStart,
		AvailabilityEnd:   r.AvailabilityEnd,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func (repo directoryRepository) QueryTutorProfiles(ctx context.Context) ([]directory.TutorProfile, error) {
	const query = `
		SELECT p.*, u.name
		FROM tutor_portfolio p
		INNER JOIN app_user u ON u.id = p.tutor_id
		WHERE u.is_active
		ORDER BY p.created_at`
	var rows []tutorProfileRow
	if err := repo.exec.SelectContext(ctx, &rows, query); err != nil {
		return nil, core.NewTransportError(err, "querying tutor profiles")
	}

	profiles := make([]directory.TutorProfile, 0, len(rows))
	for _, r := range rows {
		profiles = append(profiles, directory.TutorProfile{
			ID:         r.TutorID,
			Name:       r.Name,
			Subjects:   []string(r.Subjects),
			GradeLevel: r.GradeLevel,
			Location:   r.Location,
			HourlyRate: r.HourlyRate,
			Rating:     r.Rating,
			ImageURL:   r.ImageURL,
		})
	}
	return profiles, nil
}

func (repo directoryRepository) GetPortfolioByTutorID(ctx context.Context, tutorID string) (directory.TutorPortfolio, error) {
	var r portfolioRow
	if err := repo.exec.GetContext(ctx, &r, `SELECT * FROM tutor_portfolio WHERE tutor_id = $1`, tutorID); err != nil {
		return directory.TutorPortfolio{}, trapNoRowsErr(err, directory.ErrNotFound, "getting portfolio by tutor id")
	}
	return repo.unrow(r), nil
}

// UpsertPortfolio replaces the tutor's portfolio wholesale, keyed on tutor_id.
// The rating and created_at survive replacement.
func (repo directoryRepository) UpsertPortfolio(ctx context.Context, pf directory.TutorPortfolio) (directory.TutorPortfolio, error) {
	r := repo.row(pf)
	r.ID = uuid.New().String() // ignored on conflict, the existing row keeps its id
	const query = `
		INSERT INTO tutor_portfolio (id, tutor_id, subjects, experience, hourly_rate, grade_level, location, rating,
		                             image_url, availability_start, availability_end, created_at, updated_at)
		VALUES (:id, :tutor_id, :subjects, :experience, :hourly_rate, :grade_level, :location, :rating,
		        :image_url, :availability_start, :availability_end, :created_at, :updated_at)
		ON CONFLICT (tutor_id) DO UPDATE
		SET subjects = EXCLUDED.subjects, experience = EXCLUDED.experience, hourly_rate = EXCLUDED.hourly_rate, grade_level = EXCLUDED.grade_level,
		    location = EXCLUDED.location, image_url = EXCLUDED.image_url,
		    availability_start = EXCLUDED.availability_start, availability_end = EXCLUDED.availability_end,
		    updated_at = EXCLUDED.updated_at`
	if _, err := sqlxNamedExec(ctx, repo.exec, query, r); err != nil {
		return directory.TutorPortfolio{}, core.NewTransportError(err, "upserting portfolio")
	}
	return repo.GetPortfolioByTutorID(ctx, pf.TutorID)
}
