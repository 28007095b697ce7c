package repository

import (
	"owl_eval_backend/internal/model"

	"gorm.io/gorm"
)

type SingleVideoRepository struct {
	DB *gorm.DB
}

func NewSingleVideoRepository(db *gorm.DB) *SingleVideoRepository {
	return &SingleVideoRepository{DB: db}
}

func (r *SingleVideoRepository) CreateTask(t *model.SingleVideoTask) error {
	return r.DB.Create(t).Error
}

func (r *SingleVideoRepository) FindTaskByID(id string) (*model.SingleVideoTask, error) {
	var t model.SingleVideoTask
	err := r.DB.Where("id = ?", id).First(&t).Error
	return &t, err
}

func (r *SingleVideoRepository) FindTaskByIDWithExperiment(id string) (*model.SingleVideoTask, error) {
	var t model.SingleVideoTask
	err := r.DB.Preload("Experiment").Where("id = ?", id).First(&t).Error
	return &t, err
}

func (r *SingleVideoRepository) ListTasksByExperiment(experimentID string) ([]model.SingleVideoTask, error) {
	var ts []model.SingleVideoTask
	err := r.DB.Where("experiment_id = ?", experimentID).Order("created_at desc").Find(&ts).Error
	return ts, err
}

func (r *SingleVideoRepository) UpdateTask(t *model.SingleVideoTask) error {
	return r.DB.Save(t).Error
}

func (r *SingleVideoRepository) DeleteTask(id string) error {
	return r.DB.Where("id = ?", id).Delete(&model.SingleVideoTask{}).Error
}

func (r *SingleVideoRepository) FindSubmission(taskID, participantID string) (*model.SingleVideoSubmission, error) {
	var s model.SingleVideoSubmission
	err := r.DB.Where("task_id = ? AND participant_id = ?", taskID, participantID).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SingleVideoRepository) SaveSubmission(tx *gorm.DB, s *model.SingleVideoSubmission) error {
	return tx.Save(s).Error
}

func (r *SingleVideoRepository) CreateSubmission(tx *gorm.DB, s *model.SingleVideoSubmission) error {
	return tx.Create(s).Error
}
