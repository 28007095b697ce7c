package model

import "encoding/json"

// Comparison 双视频对比任务。A/B标签在创建时已随机化，
// 与固定的模型顺序无对应关系。
// swagger:model Comparison
type Comparison struct {
	UUIDBase
	ExperimentID string          `gorm:"size:36;index;not null" json:"experimentId"`
	ScenarioID   string          `gorm:"size:100;index;not null" json:"scenarioId"`
	ModelA       string          `gorm:"size:100" json:"modelA"`
	ModelB       string          `gorm:"size:100" json:"modelB"`
	VideoAPath   string          `gorm:"size:500;not null" json:"videoAPath"`
	VideoBPath   string          `gorm:"size:500;not null" json:"videoBPath"`
	Metadata     json.RawMessage `gorm:"type:json" json:"metadata,omitempty"`

	Experiment  *Experiment  `gorm:"foreignKey:ExperimentID" json:"experiment,omitempty"`
	Evaluations []Evaluation `gorm:"foreignKey:ComparisonID" json:"evaluations,omitempty"`
}

func (Comparison) TableName() string {
	return "comparisons"
}

// SingleVideoTask 单视频评测任务
// swagger:model SingleVideoTask
type SingleVideoTask struct {
	UUIDBase
	ExperimentID string          `gorm:"size:36;index;not null" json:"experimentId"`
	ScenarioID   string          `gorm:"size:100;index;not null" json:"scenarioId"`
	ModelName    string          `gorm:"size:100" json:"modelName"`
	VideoPath    string          `gorm:"size:500;not null" json:"videoPath"`
	Metadata     json.RawMessage `gorm:"type:json" json:"metadata,omitempty"`

	Experiment *Experiment `gorm:"foreignKey:ExperimentID" json:"experiment,omitempty"`
}

func (SingleVideoTask) TableName() string {
	return "single_video_tasks"
}
