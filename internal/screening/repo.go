package screening

import (
	"context"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateAssessment(ctx context.Context, a *Assessment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// ListAssessments returns a user's assessments newest-first, optionally
// filtered by instrument.
func (r *Repo) ListAssessments(ctx context.Context, userID uint64, inst Instrument, limit int) ([]Assessment, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit)
	if inst != "" {
		q = q.Where("instrument = ?", inst)
	}

	var out []Assessment
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) LatestAssessment(ctx context.Context, userID uint64, inst Instrument) (*Assessment, error) {
	var a Assessment
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND instrument = ?", userID, inst).
		Order("id DESC").
		First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}
