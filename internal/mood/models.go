package mood

import "time"

const dayLayout = "2006-01-02"

// MoodEntry is one journal record. Entries are append-only: there is no
// update or delete path, and nothing enforces one entry per day — lookups
// by day simply take the first match.
type MoodEntry struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    uint64    `gorm:"not null;index:idx_mood_user_day,priority:1" json:"-"`
	MoodLevel int       `gorm:"not null" json:"mood_level"`
	MoodType  string    `gorm:"type:varchar(16);not null" json:"mood_type"`
	Notes     string    `gorm:"type:text" json:"notes,omitempty"`
	Date      time.Time `json:"date"`
	Day       string    `gorm:"type:varchar(10);not null;index:idx_mood_user_day,priority:2" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (MoodEntry) TableName() string { return "mood_entries" }

// DiaryEntry is the sibling store. Unlike mood entries, diary entries can
// be edited and deleted.
type DiaryEntry struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    uint64    `gorm:"not null;index" json:"-"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (DiaryEntry) TableName() string { return "diary_entries" }

var moodTypeByLevel = map[int]string{
	1: "very-low",
	2: "low",
	3: "neutral",
	4: "good",
	5: "excellent",
}

func MoodTypeForLevel(level int) string {
	return moodTypeByLevel[level]
}
