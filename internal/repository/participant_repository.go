package repository

import (
	"time"

	"owl_eval_backend/internal/model"

	"gorm.io/gorm"
)

type ParticipantRepository struct {
	DB *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{DB: db}
}

func (r *ParticipantRepository) Create(p *model.Participant) error {
	return r.DB.Create(p).Error
}

func (r *ParticipantRepository) FindByID(id string) (*model.Participant, error) {
	var p model.Participant
	err := r.DB.Where("id = ?", id).First(&p).Error
	return &p, err
}

func (r *ParticipantRepository) FindByIDWithEvaluations(id string) (*model.Participant, error) {
	var p model.Participant
	err := r.DB.Preload("Evaluations").Where("id = ?", id).First(&p).Error
	return &p, err
}

func (r *ParticipantRepository) ListByExperiment(experimentID string, page, limit int) ([]model.Participant, int64, error) {
	var ps []model.Participant
	var total int64

	query := r.DB.Model(&model.Participant{}).Where("experiment_id = ?", experimentID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&ps).Error
	return ps, total, err
}

func (r *ParticipantRepository) UpdateStatus(id, status string) error {
	return r.DB.Model(&model.Participant{}).Where("id = ?", id).Update("status", status).Error
}

// MarkCompleted 置为completed并记录时间，只在当前非completed时生效
func (r *ParticipantRepository) MarkCompleted(tx *gorm.DB, id string, at time.Time) error {
	return tx.Model(&model.Participant{}).
		Where("id = ? AND status <> ?", id, model.ParticipantCompleted).
		Updates(map[string]interface{}{
			"status":       model.ParticipantCompleted,
			"completed_at": &at,
		}).Error
}
