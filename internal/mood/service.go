package mood

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidMood = errors.New("mood: invalid entry")

type Service struct {
	repo *Repo
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo}
}

// Append records a mood entry. The id and timestamps are assigned here;
// nothing deduplicates multiple entries for the same day.
func (s *Service) Append(ctx context.Context, userID uint64, level int, notes string, date time.Time) (*MoodEntry, error) {
	if level < 1 || level > 5 {
		return nil, fmt.Errorf("%w: mood level %d out of range", ErrInvalidMood, level)
	}
	if date.IsZero() {
		date = time.Now()
	}

	e := &MoodEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		MoodLevel: level,
		MoodType:  MoodTypeForLevel(level),
		Notes:     notes,
		Date:      date,
		Day:       date.Format(dayLayout),
	}
	if err := s.repo.InsertMood(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// History lists entries newest-first. Persistence here is best-effort:
// a failed load degrades to an empty list plus a log line instead of an
// error, so a corrupt store never takes the journal view down with it.
func (s *Service) History(ctx context.Context, userID uint64, limit int) []MoodEntry {
	if limit <= 0 || limit > 365 {
		limit = 90
	}
	entries, err := s.repo.ListMoods(ctx, userID, limit)
	if err != nil {
		log.Printf("mood: list for user %d failed, serving empty history: %v", userID, err)
		return []MoodEntry{}
	}
	return entries
}

// EntryForDate returns the entry for a calendar day, matching by exact
// day-string equality. First match wins when duplicates exist.
func (s *Service) EntryForDate(ctx context.Context, userID uint64, date time.Time) (*MoodEntry, error) {
	return s.repo.MoodByDay(ctx, userID, date.Format(dayLayout))
}

func (s *Service) CreateDiary(ctx context.Context, userID uint64, title, content string) (*DiaryEntry, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title required", ErrInvalidMood)
	}
	e := &DiaryEntry{
		ID:      uuid.NewString(),
		UserID:  userID,
		Title:   title,
		Content: content,
	}
	if err := s.repo.InsertDiary(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) ListDiary(ctx context.Context, userID uint64, limit int) []DiaryEntry {
	if limit <= 0 || limit > 365 {
		limit = 90
	}
	entries, err := s.repo.ListDiary(ctx, userID, limit)
	if err != nil {
		log.Printf("mood: diary list for user %d failed, serving empty list: %v", userID, err)
		return []DiaryEntry{}
	}
	return entries
}

func (s *Service) UpdateDiary(ctx context.Context, userID uint64, id, title, content string) error {
	if title == "" {
		return fmt.Errorf("%w: title required", ErrInvalidMood)
	}
	return s.repo.UpdateDiary(ctx, userID, id, title, content)
}

func (s *Service) DeleteDiary(ctx context.Context, userID uint64, id string) error {
	return s.repo.DeleteDiary(ctx, userID, id)
}
