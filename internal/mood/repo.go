package mood

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

func (r *Repo) InsertMood(ctx context.Context, e *MoodEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// ListMoods returns a user's entries newest-first.
func (r *Repo) ListMoods(ctx context.Context, userID uint64, limit int) ([]MoodEntry, error) {
	var out []MoodEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MoodByDay returns the earliest-inserted entry for the given day key.
// Duplicate days are allowed; first match wins.
func (r *Repo) MoodByDay(ctx context.Context, userID uint64, day string) (*MoodEntry, error) {
	var e MoodEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day).
		Order("created_at ASC").
		First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repo) InsertDiary(ctx context.Context, e *DiaryEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *Repo) ListDiary(ctx context.Context, userID uint64, limit int) ([]DiaryEntry, error) {
	var out []DiaryEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) UpdateDiary(ctx context.Context, userID uint64, id, title, content string) error {
	res := r.db.WithContext(ctx).Model(&DiaryEntry{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{
			"title":   title,
			"content": content,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repo) DeleteDiary(ctx context.Context, userID uint64, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&DiaryEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
