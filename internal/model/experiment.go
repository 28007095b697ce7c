package model

import "encoding/json"

// 实验状态
const (
	ExperimentDraft     = "draft"
	ExperimentActive    = "active"
	ExperimentCompleted = "completed"
	ExperimentArchived  = "archived"
)

// swagger:model Experiment
type Experiment struct {
	UUIDBase
	Slug             string          `gorm:"size:191;uniqueIndex;not null" json:"slug"`
	Name             string          `gorm:"size:255;not null" json:"name"`
	Description      string          `gorm:"type:text" json:"description"`
	Status           string          `gorm:"size:20;default:'draft'" json:"status"`
	Archived         bool            `gorm:"default:false" json:"archived"`
	Group            string          `gorm:"size:100;index" json:"group"`
	ProlificStudyID  string          `gorm:"size:100" json:"prolificStudyId,omitempty"`
	Config           json.RawMessage `gorm:"type:json" json:"config,omitempty"`
	EvaluationMode   string          `gorm:"size:30;default:'comparison'" json:"evaluationMode"`
	TargetPerTask    int             `gorm:"default:5" json:"targetPerTask"`
}

func (Experiment) TableName() string {
	return "experiments"
}
