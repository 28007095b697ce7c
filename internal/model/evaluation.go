package model

import (
	"encoding/json"
	"time"
)

// 评测提交状态
const (
	EvaluationDraft     = "draft"
	EvaluationCompleted = "completed"
)

// 聚合结论
const (
	ChosenA     = "A"
	ChosenB     = "B"
	ChosenEqual = "Equal"
)

// Evaluation 一名参与者对一个对比任务的判定。
// (comparison_id, participant_id) 唯一，completed 后不可覆盖。
// swagger:model Evaluation
type Evaluation struct {
	UUIDBase
	ComparisonID          string          `gorm:"size:36;not null;uniqueIndex:idx_comparison_participant" json:"comparisonId"`
	ParticipantID         string          `gorm:"size:191;not null;uniqueIndex:idx_comparison_participant" json:"participantId"`
	ExperimentID          string          `gorm:"size:36;index;not null" json:"experimentId"`
	ChosenModel           string          `gorm:"size:10" json:"chosenModel"`
	DimensionScores       json.RawMessage `gorm:"type:json" json:"dimensionScores"`
	CompletionTimeSeconds *float64        `json:"completionTimeSeconds,omitempty"`
	ClientMetadata        json.RawMessage `gorm:"type:json" json:"clientMetadata,omitempty"`
	Status                string          `gorm:"size:20;default:'draft';index" json:"status"`
	LastSavedAt           *time.Time      `json:"lastSavedAt,omitempty"`
}

func (Evaluation) TableName() string {
	return "evaluations"
}

// EvaluationClientMetadata 客户端元数据，提交时写入
type EvaluationClientMetadata struct {
	EvaluatorID     string          `json:"evaluatorId"`
	DetailedRatings json.RawMessage `json:"detailedRatings"`
	SubmittedAt     string          `json:"submittedAt"`
}

// SingleVideoSubmission 单视频评测提交，(task_id, participant_id) 唯一
// swagger:model SingleVideoSubmission
type SingleVideoSubmission struct {
	UUIDBase
	TaskID                string          `gorm:"size:36;not null;uniqueIndex:idx_task_participant" json:"taskId"`
	ParticipantID         string          `gorm:"size:191;not null;uniqueIndex:idx_task_participant" json:"participantId"`
	ExperimentID          string          `gorm:"size:36;index;not null" json:"experimentId"`
	Scores                json.RawMessage `gorm:"type:json" json:"scores"`
	CompletionTimeSeconds *float64        `json:"completionTimeSeconds,omitempty"`
	ClientMetadata        json.RawMessage `gorm:"type:json" json:"clientMetadata,omitempty"`
	Status                string          `gorm:"size:20;default:'draft';index" json:"status"`
	LastSavedAt           *time.Time      `json:"lastSavedAt,omitempty"`
}

func (SingleVideoSubmission) TableName() string {
	return "single_video_submissions"
}
