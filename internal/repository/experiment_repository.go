package repository

import (
	"owl_eval_backend/internal/model"

	"gorm.io/gorm"
)

type ExperimentRepository struct {
	DB *gorm.DB
}

func NewExperimentRepository(db *gorm.DB) *ExperimentRepository {
	return &ExperimentRepository{DB: db}
}

func (r *ExperimentRepository) Create(e *model.Experiment) error {
	return r.DB.Create(e).Error
}

func (r *ExperimentRepository) FindByID(id string) (*model.Experiment, error) {
	var e model.Experiment
	err := r.DB.Where("id = ?", id).First(&e).Error
	return &e, err
}

func (r *ExperimentRepository) FindBySlug(slug string) (*model.Experiment, error) {
	var e model.Experiment
	err := r.DB.Where("slug = ?", slug).First(&e).Error
	return &e, err
}

type ExperimentFilter struct {
	Status   string
	Group    string
	Archived *bool
}

func (r *ExperimentRepository) List(filter ExperimentFilter, page, limit int) ([]model.Experiment, int64, error) {
	var es []model.Experiment
	var total int64

	query := r.DB.Model(&model.Experiment{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Group != "" {
		query = query.Where("`group` = ?", filter.Group)
	}
	if filter.Archived != nil {
		query = query.Where("archived = ?", *filter.Archived)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&es).Error
	return es, total, err
}

func (r *ExperimentRepository) ListActive() ([]model.Experiment, error) {
	var es []model.Experiment
	err := r.DB.Where("status = ?", model.ExperimentActive).Order("created_at desc").Find(&es).Error
	return es, err
}

func (r *ExperimentRepository) Update(e *model.Experiment) error {
	return r.DB.Save(e).Error
}

func (r *ExperimentRepository) SetArchived(id string, archived bool) error {
	updates := map[string]interface{}{"archived": archived}
	if archived {
		updates["status"] = model.ExperimentArchived
	}
	return r.DB.Model(&model.Experiment{}).Where("id = ?", id).Updates(updates).Error
}

func (r *ExperimentRepository) Delete(id string) error {
	return r.DB.Where("id = ?", id).Delete(&model.Experiment{}).Error
}
