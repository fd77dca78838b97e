package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/tutorlink/backend/core/directory"
)

type directoryRepository struct {
	db *DB
}

var _ directory.Repository = (*directoryRepository)(nil)

func NewDirectoryRepository(db *DB) directory.Repository {
	return &directoryRepository{db: db}
}

func (repo *directoryRepository) QueryTutorProfiles(ctx context.Context) ([]directory.TutorProfile, error) {
	repo.db.portfolio.RLock()
	portfolios := make([]directory.TutorPortfolio, 0, len(repo.db.portfolio.table))
	for _, pf := range repo.db.portfolio.table {
		portfolios = append(portfolios, *pf)
	}
	repo.db.portfolio.RUnlock()

	// stable output, maps have no order
	sort.Slice(portfolios, func(i, j int) bool { return portfolios[i].CreatedAt.Before(portfolios[j].CreatedAt) })

	profiles := make([]directory.TutorProfile, 0, len(portfolios))
	for _, pf := range portfolios {
		var name string
		if usr, err := NewUserRepository(repo.db).GetUserByID(ctx, pf.TutorID); err == nil {
			if !usr.IsActive {
				continue
			}
			name = usr.Name
		}
		profiles = append(profiles, directory.TutorProfile{
			ID:         pf.TutorID,
			Name:       name,
			Subjects:   pf.Subjects,
			GradeLevel: pf.GradeLevel,
			Location:   pf.Location,
			HourlyRate: pf.HourlyRate,
			Rating:     pf.Rating,
			ImageURL:   pf.ImageURL,
		})
	}
	return profiles, nil
}

func (repo *directoryRepository) GetPortfolioByTutorID(ctx context.Context, tutorID string) (directory.TutorPortfolio, error) {
	repo.db.portfolio.RLock()
	defer repo.db.portfolio.RUnlock()

	if pf, ok := repo.db.portfolio.table[tutorID]; ok {
		return *pf, nil
	}
	return directory.TutorPortfolio{}, directory.ErrNotFound
}

func (repo *directoryRepository) UpsertPortfolio(ctx context.Context, pf directory.TutorPortfolio) (directory.TutorPortfolio, error) {
	repo.db.portfolio.Lock()
	defer repo.db.portfolio.Unlock()

	if prev, ok := repo.db.portfolio.table[pf.TutorID]; ok {
		pf.ID = prev.ID
		pf.Rating = prev.Rating
		pf.CreatedAt = prev.CreatedAt
	} else {
		pf.ID = uuid.New().String()
	}
	repo.db.portfolio.table[pf.TutorID] = &pf
	return pf, nil
}
