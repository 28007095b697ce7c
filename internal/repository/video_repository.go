package repository

import (
	"owl_eval_backend/internal/model"

	"gorm.io/gorm"
)

type VideoRepository struct {
	DB *gorm.DB
}

func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{DB: db}
}

func (r *VideoRepository) Create(v *model.Video) error {
	return r.DB.Create(v).Error
}

func (r *VideoRepository) FindByID(id string) (*model.Video, error) {
	var v model.Video
	err := r.DB.Where("id = ?", id).First(&v).Error
	return &v, err
}

func (r *VideoRepository) FindByKey(key string) (*model.Video, error) {
	var v model.Video
	err := r.DB.Where("`key` = ?", key).First(&v).Error
	return &v, err
}

func (r *VideoRepository) List(modelName, scenario string, page, limit int) ([]model.Video, int64, error) {
	var vs []model.Video
	var total int64

	query := r.DB.Model(&model.Video{})
	if modelName != "" {
		query = query.Where("model_name = ?", modelName)
	}
	if scenario != "" {
		query = query.Where("scenario = ?", scenario)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&vs).Error
	return vs, total, err
}

func (r *VideoRepository) Delete(id string) error {
	return r.DB.Where("id = ?", id).Delete(&model.Video{}).Error
}
