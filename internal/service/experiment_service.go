package service

import (
	"encoding/json"
	"errors"

	"owl_eval_backend/internal/model"
	"owl_eval_backend/internal/repository"
	"owl_eval_backend/internal/util"

	"gorm.io/gorm"
)

type ExperimentService struct {
	Repo *repository.ExperimentRepository
}

func NewExperimentService(repo *repository.ExperimentRepository) *ExperimentService {
	return &ExperimentService{Repo: repo}
}

type ExperimentRequest struct {
	Slug            string          `json:"slug" binding:"required"`
	Name            string          `json:"name" binding:"required"`
	Description     string          `json:"description"`
	Status          string          `json:"status"`
	Group           string          `json:"group"`
	ProlificStudyID string          `json:"prolificStudyId"`
	Config          json.RawMessage `json:"config"`
	EvaluationMode  string          `json:"evaluationMode"`
	TargetPerTask   int             `json:"targetPerTask"`
}

func (s *ExperimentService) Create(req ExperimentRequest) (*model.Experiment, error) {
	_, err := s.Repo.FindBySlug(req.Slug)
	if err == nil {
		return nil, util.ErrSlugTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = model.ExperimentDraft
	}
	mode := req.EvaluationMode
	if mode == "" {
		mode = "comparison"
	}
	target := req.TargetPerTask
	if target <= 0 {
		target = 5
	}

	e := &model.Experiment{
		Slug:            req.Slug,
		Name:            req.Name,
		Description:     req.Description,
		Status:          status,
		Group:           req.Group,
		ProlificStudyID: req.ProlificStudyID,
		Config:          req.Config,
		EvaluationMode:  mode,
		TargetPerTask:   target,
	}
	if err := s.Repo.Create(e); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrSlugTaken
		}
		return nil, err
	}
	return e, nil
}

func (s *ExperimentService) Get(id string) (*model.Experiment, error) {
	e, err := s.Repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExperimentNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *ExperimentService) GetBySlug(slug string) (*model.Experiment, error) {
	e, err := s.Repo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExperimentNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *ExperimentService) List(filter repository.ExperimentFilter, page, limit int) ([]model.Experiment, int64, error) {
	return s.Repo.List(filter, page, limit)
}

func (s *ExperimentService) ListActive() ([]model.Experiment, error) {
	return s.Repo.ListActive()
}

func (s *ExperimentService) Update(id string, req ExperimentRequest) (*model.Experiment, error) {
	e, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if req.Slug != "" && req.Slug != e.Slug {
		if _, err := s.Repo.FindBySlug(req.Slug); err == nil {
			return nil, util.ErrSlugTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		e.Slug = req.Slug
	}

	e.Name = req.Name
	e.Description = req.Description
	if req.Status != "" {
		e.Status = req.Status
	}
	e.Group = req.Group
	e.ProlificStudyID = req.ProlificStudyID
	if req.Config != nil {
		e.Config = req.Config
	}
	if req.EvaluationMode != "" {
		e.EvaluationMode = req.EvaluationMode
	}
	if req.TargetPerTask > 0 {
		e.TargetPerTask = req.TargetPerTask
	}

	if err := s.Repo.Update(e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *ExperimentService) SetArchived(id string, archived bool) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.Repo.SetArchived(id, archived)
}

func (s *ExperimentService) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.Repo.Delete(id)
}
