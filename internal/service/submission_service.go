package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"owl_eval_backend/internal/model"
	"owl_eval_backend/internal/repository"
	"owl_eval_backend/internal/util"
	"owl_eval_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SubmissionService 评测提交工作流：
// 参与者身份解析 → 重复提交检查 → 维度投票聚合 → 落库 → 完成状态检查 → 下一任务查找
type SubmissionService struct {
	Comparisons  *repository.ComparisonRepository
	Participants *repository.ParticipantRepository
	Evaluations  *repository.EvaluationRepository
	SingleVideo  *repository.SingleVideoRepository
	DB           *gorm.DB
}

func NewSubmissionService(
	comparisonRepo *repository.ComparisonRepository,
	participantRepo *repository.ParticipantRepository,
	evaluationRepo *repository.EvaluationRepository,
	singleVideoRepo *repository.SingleVideoRepository,
	db *gorm.DB,
) *SubmissionService {
	return &SubmissionService{
		Comparisons:  comparisonRepo,
		Participants: participantRepo,
		Evaluations:  evaluationRepo,
		SingleVideo:  singleVideoRepo,
		DB:           db,
	}
}

type SubmitEvaluationRequest struct {
	ComparisonID          string            `json:"comparison_id"`
	DimensionScores       map[string]string `json:"dimension_scores"`
	ExperimentID          string            `json:"experiment_id"`
	ParticipantID         string            `json:"participant_id"`
	SessionID             string            `json:"session_id"`
	EvaluatorID           string            `json:"evaluator_id"`
	CompletionTimeSeconds *float64          `json:"completion_time_seconds"`
	DetailedRatings       json.RawMessage   `json:"detailed_ratings"`
}

type SubmitEvaluationResult struct {
	EvaluationID     string  `json:"evaluation_id"`
	ExperimentID     string  `json:"-"`
	NextComparisonID *string `json:"next_comparison_id"`
}

// isAnonymous 未携带participant_id或显式传"anonymous"都走匿名流程
func isAnonymous(participantID string) bool {
	return participantID == "" || participantID == "anonymous"
}

// AggregateChosenModel 对维度投票做多数裁决：A多于B取A，B多取B，平局（含空）取Equal
func AggregateChosenModel(dimensionScores map[string]string) string {
	aCount, bCount := 0, 0
	for _, v := range dimensionScores {
		switch v {
		case model.ChosenA:
			aCount++
		case model.ChosenB:
			bCount++
		}
	}
	if aCount > bCount {
		return model.ChosenA
	}
	if bCount > aCount {
		return model.ChosenB
	}
	return model.ChosenEqual
}

// SubmitEvaluation 处理一次双视频对比提交。
// 错误映射：util.ErrMissingFields→400，util.ErrComparisonNotFound→404，
// util.ErrEvaluationCompleted→409，其余→500。
func (s *SubmissionService) SubmitEvaluation(req SubmitEvaluationRequest) (*SubmitEvaluationResult, error) {
	if req.ComparisonID == "" || req.DimensionScores == nil {
		return nil, util.ErrMissingFields
	}

	comparison, err := s.Comparisons.FindByID(req.ComparisonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrComparisonNotFound
		}
		return nil, err
	}

	experimentID := req.ExperimentID
	if experimentID == "" {
		experimentID = comparison.ExperimentID
	}

	anonymous := isAnonymous(req.ParticipantID)
	participantID := req.ParticipantID
	if anonymous {
		participantID, err = s.resolveAnonymousParticipant(experimentID, req.SessionID, req.EvaluatorID)
		if err != nil {
			return nil, err
		}
	}

	// 重复提交检查：completed的评测拒绝覆盖
	existing, err := s.Evaluations.FindByComparisonAndParticipant(req.ComparisonID, participantID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil && existing.Status == model.EvaluationCompleted {
		return nil, util.ErrEvaluationCompleted
	}

	chosenModel := AggregateChosenModel(req.DimensionScores)

	now := time.Now()
	scores, err := json.Marshal(req.DimensionScores)
	if err != nil {
		return nil, err
	}
	metadata, err := buildClientMetadata(req.EvaluatorID, req.DetailedRatings, now)
	if err != nil {
		return nil, err
	}

	evaluation := existing
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if evaluation != nil {
			// 已有draft：更新为completed
			evaluation.ChosenModel = chosenModel
			evaluation.DimensionScores = scores
			evaluation.CompletionTimeSeconds = req.CompletionTimeSeconds
			evaluation.ClientMetadata = metadata
			evaluation.Status = model.EvaluationCompleted
			evaluation.LastSavedAt = &now
			if err := s.Evaluations.Save(tx, evaluation); err != nil {
				return err
			}
		} else {
			evaluation = &model.Evaluation{
				ComparisonID:          req.ComparisonID,
				ParticipantID:         participantID,
				ExperimentID:          experimentID,
				ChosenModel:           chosenModel,
				DimensionScores:       scores,
				CompletionTimeSeconds: req.CompletionTimeSeconds,
				ClientMetadata:        metadata,
				Status:                model.EvaluationCompleted,
				LastSavedAt:           &now,
			}
			if err := s.Evaluations.Create(tx, evaluation); err != nil {
				// 唯一索引(comparison_id, participant_id)仲裁并发的重复提交
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return util.ErrEvaluationCompleted
				}
				return err
			}
		}

		// Prolific流程：显式participant_id才做完成状态检查，匿名流程走下一任务查找
		if !anonymous {
			if err := s.checkParticipantCompletion(tx, req.ParticipantID, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &SubmitEvaluationResult{
		EvaluationID: evaluation.ID,
		ExperimentID: experimentID,
	}
	if anonymous {
		next, err := s.nextPendingComparison(experimentID, participantID)
		if err != nil {
			return nil, err
		}
		result.NextComparisonID = next
	}
	return result, nil
}

// resolveAnonymousParticipant 由session派生稳定的参与者ID，首次提交时创建
// 参与者记录并快照实验的全部对比任务作为其任务清单。
func (s *SubmissionService) resolveAnonymousParticipant(experimentID, sessionID, evaluatorID string) (string, error) {
	if sessionID == "" {
		sessionID = "anon-session"
	}
	participantID := model.AnonymousIDPrefix + sessionID

	_, err := s.Participants.FindByID(participantID)
	if err == nil {
		return participantID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	assigned, err := s.Comparisons.ListIDsByExperiment(experimentID)
	if err != nil {
		return "", err
	}

	prolificID := evaluatorID
	if prolificID == "" {
		prolificID = fmt.Sprintf("anon-%d", time.Now().UnixMilli())
	}

	p := &model.Participant{
		ID:           participantID,
		ProlificID:   prolificID,
		ExperimentID: experimentID,
		SessionID:    sessionID,
		Status:       model.ParticipantActive,
	}
	p.SetAssignedIDs(assigned)

	if err := s.Participants.Create(p); err != nil {
		// 并发下同一session重复创建：当作已存在，继续
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return participantID, nil
		}
		return "", err
	}
	return participantID, nil
}

// checkParticipantCompletion 任务清单全部有completed评测时，参与者置为completed。
// 只发生一次，不会回退。
func (s *SubmissionService) checkParticipantCompletion(tx *gorm.DB, participantID string, now time.Time) error {
	var participant model.Participant
	err := tx.Preload("Evaluations").Where("id = ?", participantID).First(&participant).Error
	if err != nil {
		// Prolific参与者记录由分配环节预建，缺失时不视为错误
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	completed := make(map[string]bool, len(participant.Evaluations))
	for _, e := range participant.Evaluations {
		if e.Status == model.EvaluationCompleted {
			completed[e.ComparisonID] = true
		}
	}

	for _, id := range participant.AssignedIDs() {
		if !completed[id] {
			return nil
		}
	}

	if participant.Status == model.ParticipantCompleted {
		return nil
	}

	logger.Log.Info("participant completed all assigned comparisons",
		zap.String("participant", participantID))
	return s.Participants.MarkCompleted(tx, participantID, now)
}

// nextPendingComparison 按创建顺序线性扫描，返回该参与者第一个未完成的对比任务
func (s *SubmissionService) nextPendingComparison(experimentID, participantID string) (*string, error) {
	comparisons, err := s.Comparisons.ListByExperimentAsc(experimentID)
	if err != nil {
		return nil, err
	}

	for _, comp := range comparisons {
		existing, err := s.Evaluations.FindByComparisonAndParticipant(comp.ID, participantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				id := comp.ID
				return &id, nil
			}
			return nil, err
		}
		if existing.Status != model.EvaluationCompleted {
			id := comp.ID
			return &id, nil
		}
	}
	return nil, nil
}

func buildClientMetadata(evaluatorID string, detailedRatings json.RawMessage, now time.Time) (json.RawMessage, error) {
	if evaluatorID == "" {
		evaluatorID = "anonymous"
	}
	if len(detailedRatings) == 0 {
		detailedRatings = json.RawMessage("{}")
	}
	return json.Marshal(model.EvaluationClientMetadata{
		EvaluatorID:     evaluatorID,
		DetailedRatings: detailedRatings,
		SubmittedAt:     now.UTC().Format(time.RFC3339),
	})
}

type SubmitSingleVideoRequest struct {
	TaskID                string                 `json:"task_id"`
	Scores                map[string]interface{} `json:"scores"`
	ExperimentID          string                 `json:"experiment_id"`
	ParticipantID         string                 `json:"participant_id"`
	SessionID             string                 `json:"session_id"`
	EvaluatorID           string                 `json:"evaluator_id"`
	CompletionTimeSeconds *float64               `json:"completion_time_seconds"`
}

// SubmitSingleVideo 单视频评测提交。身份解析与重复提交语义和对比流程一致，
// 不做A/B聚合，分数原样落库。
func (s *SubmissionService) SubmitSingleVideo(req SubmitSingleVideoRequest) (string, error) {
	if req.TaskID == "" || req.Scores == nil {
		return "", util.ErrMissingFields
	}

	task, err := s.SingleVideo.FindTaskByID(req.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", util.ErrTaskNotFound
		}
		return "", err
	}

	experimentID := req.ExperimentID
	if experimentID == "" {
		experimentID = task.ExperimentID
	}

	participantID := req.ParticipantID
	if isAnonymous(participantID) {
		participantID, err = s.resolveAnonymousParticipant(experimentID, req.SessionID, req.EvaluatorID)
		if err != nil {
			return "", err
		}
	}

	existing, err := s.SingleVideo.FindSubmission(req.TaskID, participantID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	if existing != nil && existing.Status == model.EvaluationCompleted {
		return "", util.ErrEvaluationCompleted
	}

	now := time.Now()
	scores, err := json.Marshal(req.Scores)
	if err != nil {
		return "", err
	}
	metadata, err := buildClientMetadata(req.EvaluatorID, nil, now)
	if err != nil {
		return "", err
	}

	submission := existing
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if submission != nil {
			submission.Scores = scores
			submission.CompletionTimeSeconds = req.CompletionTimeSeconds
			submission.ClientMetadata = metadata
			submission.Status = model.EvaluationCompleted
			submission.LastSavedAt = &now
			return s.SingleVideo.SaveSubmission(tx, submission)
		}
		submission = &model.SingleVideoSubmission{
			TaskID:                req.TaskID,
			ParticipantID:         participantID,
			ExperimentID:          experimentID,
			Scores:                scores,
			CompletionTimeSeconds: req.CompletionTimeSeconds,
			ClientMetadata:        metadata,
			Status:                model.EvaluationCompleted,
			LastSavedAt:           &now,
		}
		if err := s.SingleVideo.CreateSubmission(tx, submission); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return util.ErrEvaluationCompleted
			}
			return err
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return submission.ID, nil
}
