package repository

import (
	"owl_eval_backend/internal/model"

	"gorm.io/gorm"
)

type EvaluationRepository struct {
	DB *gorm.DB
}

func NewEvaluationRepository(db *gorm.DB) *EvaluationRepository {
	return &EvaluationRepository{DB: db}
}

func (r *EvaluationRepository) FindByComparisonAndParticipant(comparisonID, participantID string) (*model.Evaluation, error) {
	var e model.Evaluation
	err := r.DB.Where("comparison_id = ? AND participant_id = ?", comparisonID, participantID).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EvaluationRepository) Create(tx *gorm.DB, e *model.Evaluation) error {
	return tx.Create(e).Error
}

func (r *EvaluationRepository) Save(tx *gorm.DB, e *model.Evaluation) error {
	return tx.Save(e).Error
}

func (r *EvaluationRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Evaluation{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

func (r *EvaluationRepository) CountAll() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Evaluation{}).Count(&count).Error
	return count, err
}

func (r *EvaluationRepository) CountCompletedByComparison(comparisonID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Evaluation{}).
		Where("comparison_id = ? AND status = ?", comparisonID, model.EvaluationCompleted).
		Count(&count).Error
	return count, err
}

func (r *EvaluationRepository) ListByExperiment(experimentID string) ([]model.Evaluation, error) {
	var es []model.Evaluation
	err := r.DB.Where("experiment_id = ?", experimentID).Order("created_at asc").Find(&es).Error
	return es, err
}
