package model

import (
	"encoding/json"
	"strings"
	"time"
)

// 参与者状态
const (
	ParticipantActive    = "active"
	ParticipantCompleted = "completed"
	ParticipantReturned  = "returned"
)

// AnonymousIDPrefix 匿名参与者ID前缀，由客户端session派生
const AnonymousIDPrefix = "anon-"

// Participant ID由外部指定：Prolific分配的ID，或 "anon-<sessionId>"。
// AssignedComparisons 在创建时快照，之后不再重算，是完成状态的权威清单。
// swagger:model Participant
type Participant struct {
	ID           string          `gorm:"primaryKey;size:191" json:"id"`
	ProlificID   string          `gorm:"size:100;index" json:"prolificId"`
	ExperimentID string          `gorm:"size:36;index;not null" json:"experimentId"`
	SessionID    string          `gorm:"size:191" json:"sessionId"`
	Status       string          `gorm:"size:20;default:'active'" json:"status"`
	Assigned     json.RawMessage `gorm:"column:assigned_comparisons;type:json" json:"assignedComparisons"`
	CompletedAt  *time.Time      `json:"completedAt,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`

	Evaluations []Evaluation `gorm:"foreignKey:ParticipantID" json:"evaluations,omitempty"`
}

func (Participant) TableName() string {
	return "participants"
}

func (p *Participant) AssignedIDs() []string {
	if len(p.Assigned) == 0 {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(p.Assigned, &ids); err != nil {
		return nil
	}
	return ids
}

func (p *Participant) SetAssignedIDs(ids []string) {
	if ids == nil {
		ids = []string{}
	}
	data, _ := json.Marshal(ids)
	p.Assigned = data
}

// IsAnonymousSession 判断是否匿名session参与者（统计口径用）
func IsAnonymousSession(participantID string) bool {
	return strings.HasPrefix(participantID, "anon-session-")
}
