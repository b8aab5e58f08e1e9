package screening

import "time"

// Assessment is a submitted response vector plus its derived result,
// retained indefinitely for trend history. Responses are immutable once
// stored.
type Assessment struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint64     `gorm:"not null;index:idx_assessment_user_inst,priority:1" json:"-"`
	Instrument Instrument `gorm:"type:varchar(8);not null;index:idx_assessment_user_inst,priority:2" json:"instrument"`
	Responses  []int      `gorm:"serializer:json;not null" json:"responses"`
	TotalScore int        `gorm:"not null" json:"total_score"`
	RiskLevel  RiskLevel  `gorm:"type:varchar(24);not null" json:"risk_level"`
	IsHighRisk bool       `gorm:"not null" json:"is_high_risk"`
	IsCrisis   bool       `gorm:"not null" json:"is_crisis"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (Assessment) TableName() string { return "screening_assessments" }
