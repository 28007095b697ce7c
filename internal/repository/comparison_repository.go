package repository

import (
	"owl_eval_backend/internal/model"

	"gorm.io/gorm"
)

type ComparisonRepository struct {
	DB *gorm.DB
}

func NewComparisonRepository(db *gorm.DB) *ComparisonRepository {
	return &ComparisonRepository{DB: db}
}

func (r *ComparisonRepository) Create(c *model.Comparison) error {
	return r.DB.Create(c).Error
}

func (r *ComparisonRepository) FindByID(id string) (*model.Comparison, error) {
	var c model.Comparison
	err := r.DB.Where("id = ?", id).First(&c).Error
	return &c, err
}

func (r *ComparisonRepository) FindByIDWithExperiment(id string) (*model.Comparison, error) {
	var c model.Comparison
	err := r.DB.Preload("Experiment").Where("id = ?", id).First(&c).Error
	return &c, err
}

// ListByExperimentAsc 按创建时间升序，任务顺序对参与者稳定
func (r *ComparisonRepository) ListByExperimentAsc(experimentID string) ([]model.Comparison, error) {
	var cs []model.Comparison
	err := r.DB.Where("experiment_id = ?", experimentID).Order("created_at asc").Find(&cs).Error
	return cs, err
}

func (r *ComparisonRepository) ListByExperimentDesc(experimentID string) ([]model.Comparison, error) {
	var cs []model.Comparison
	err := r.DB.Where("experiment_id = ?", experimentID).Order("created_at desc").Find(&cs).Error
	return cs, err
}

func (r *ComparisonRepository) ListByExperimentsDesc(experimentIDs []string) ([]model.Comparison, error) {
	var cs []model.Comparison
	err := r.DB.Where("experiment_id IN ?", experimentIDs).Order("created_at desc").Find(&cs).Error
	return cs, err
}

// ListIDsByExperiment 快照参与者的任务清单用
func (r *ComparisonRepository) ListIDsByExperiment(experimentID string) ([]string, error) {
	var ids []string
	err := r.DB.Model(&model.Comparison{}).Where("experiment_id = ?", experimentID).
		Order("created_at asc").Pluck("id", &ids).Error
	return ids, err
}

func (r *ComparisonRepository) Update(c *model.Comparison) error {
	return r.DB.Save(c).Error
}

func (r *ComparisonRepository) Delete(id string) error {
	return r.DB.Where("id = ?", id).Delete(&model.Comparison{}).Error
}
