package service

import (
	"errors"

	"owl_eval_backend/internal/model"
	"owl_eval_backend/internal/repository"
	"owl_eval_backend/internal/util"

	"gorm.io/gorm"
)

type ParticipantService struct {
	Repo *repository.ParticipantRepository
}

func NewParticipantService(repo *repository.ParticipantRepository) *ParticipantService {
	return &ParticipantService{Repo: repo}
}

func (s *ParticipantService) Get(id string) (*model.Participant, error) {
	p, err := s.Repo.FindByIDWithEvaluations(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrParticipantNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *ParticipantService) ListByExperiment(experimentID string, page, limit int) ([]model.Participant, int64, error) {
	return s.Repo.ListByExperiment(experimentID, page, limit)
}

// MarkReturned Prolific参与者退出研究，其提交从统计中剔除
func (s *ParticipantService) MarkReturned(id string) error {
	if _, err := s.Repo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrParticipantNotFound
		}
		return err
	}
	return s.Repo.UpdateStatus(id, model.ParticipantReturned)
}
