package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"owl_eval_backend/internal/model"
	"owl_eval_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	statsCacheKeyPrefix = "owl_eval:stats:"
	statsCacheTTL       = time.Minute
)

// StatsService 管理端聚合统计。查询口径：
// 归档实验不计入；status=returned的参与者一律排除；
// 匿名session参与者（id前缀 anon-session-）默认排除，可选计入。
type StatsService struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewStatsService(db *gorm.DB, rdb *redis.Client) *StatsService {
	return &StatsService{DB: db, Redis: rdb}
}

// EvaluationStatus 按状态统计评测数
type EvaluationStatus struct {
	Completed int64 `json:"completed"`
	Draft     int64 `json:"draft"`
	Total     int64 `json:"total"`
	Active    int64 `json:"active"` // 不跟踪active状态，恒为0
}

func (s *StatsService) EvaluationStatus() (*EvaluationStatus, error) {
	var status EvaluationStatus

	if err := s.DB.Model(&model.Evaluation{}).
		Where("status = ?", model.EvaluationCompleted).Count(&status.Completed).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&model.Evaluation{}).
		Where("status = ?", model.EvaluationDraft).Count(&status.Draft).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&model.Evaluation{}).Count(&status.Total).Error; err != nil {
		return nil, err
	}
	return &status, nil
}

// SubmissionStats 提交总量统计
type SubmissionStats struct {
	TotalTasks               int64            `json:"total_tasks"`
	TotalSubmissions         int64            `json:"total_submissions"`
	TotalComparisonTasks     int64            `json:"total_comparison_tasks"`
	TotalSingleVideoTasks    int64            `json:"total_single_video_tasks"`
	TotalComparisonSubs      int64            `json:"total_comparison_submissions"`
	TotalSingleVideoSubs     int64            `json:"total_single_video_submissions"`
	EvaluationsByScenario    map[string]int64 `json:"evaluations_by_scenario"`
	TargetEvaluationsPerTask int              `json:"target_evaluations_per_comparison"`
}

func (s *StatsService) SubmissionStats(group string, includeAnonymous bool) (*SubmissionStats, error) {
	cacheKey := fmt.Sprintf("%ssubmission:%s:%t", statsCacheKeyPrefix, group, includeAnonymous)
	if cached := s.fromCache(cacheKey); cached != nil {
		return cached, nil
	}

	stats := &SubmissionStats{
		EvaluationsByScenario:    make(map[string]int64),
		TargetEvaluationsPerTask: 5,
	}

	var err error
	if stats.TotalComparisonTasks, err = s.countTasks(&model.Comparison{}, "comparisons", group); err != nil {
		return nil, err
	}
	if stats.TotalSingleVideoTasks, err = s.countTasks(&model.SingleVideoTask{}, "single_video_tasks", group); err != nil {
		return nil, err
	}
	if stats.TotalComparisonSubs, err = s.countSubmissions(&model.Evaluation{}, "evaluations", group, includeAnonymous); err != nil {
		return nil, err
	}
	if stats.TotalSingleVideoSubs, err = s.countSubmissions(&model.SingleVideoSubmission{}, "single_video_submissions", group, includeAnonymous); err != nil {
		return nil, err
	}
	stats.TotalTasks = stats.TotalComparisonTasks + stats.TotalSingleVideoTasks
	stats.TotalSubmissions = stats.TotalComparisonSubs + stats.TotalSingleVideoSubs

	if err := s.fillScenarioCounts(stats, group, includeAnonymous); err != nil {
		return nil, err
	}

	s.toCache(cacheKey, stats)
	return stats, nil
}

func (s *StatsService) countTasks(m interface{}, table, group string) (int64, error) {
	var count int64
	q := s.DB.Model(m).
		Joins(fmt.Sprintf("JOIN experiments ON experiments.id = %s.experiment_id", table)).
		Where("experiments.archived = ?", false)
	if group != "" {
		q = q.Where("experiments.`group` = ?", group)
	}
	err := q.Count(&count).Error
	return count, err
}

func (s *StatsService) countSubmissions(m interface{}, table, group string, includeAnonymous bool) (int64, error) {
	var count int64
	q := s.DB.Model(m).
		Joins(fmt.Sprintf("JOIN experiments ON experiments.id = %s.experiment_id", table)).
		Joins(fmt.Sprintf("JOIN participants ON participants.id = %s.participant_id", table)).
		Where(fmt.Sprintf("%s.status = ?", table), model.EvaluationCompleted).
		Where("experiments.archived = ?", false).
		Where("participants.status <> ?", model.ParticipantReturned)
	if group != "" {
		q = q.Where("experiments.`group` = ?", group)
	}
	if !includeAnonymous {
		q = q.Where("participants.id NOT LIKE ?", "anon-session-%")
	}
	err := q.Count(&count).Error
	return count, err
}

// fillScenarioCounts 逐任务统计，正确性优先于效率（任务量级为几十到几百）
func (s *StatsService) fillScenarioCounts(stats *SubmissionStats, group string, includeAnonymous bool) error {
	var comparisons []model.Comparison
	q := s.DB.Model(&model.Comparison{}).
		Joins("JOIN experiments ON experiments.id = comparisons.experiment_id").
		Where("experiments.archived = ?", false)
	if group != "" {
		q = q.Where("experiments.`group` = ?", group)
	}
	if err := q.Find(&comparisons).Error; err != nil {
		return err
	}

	for _, c := range comparisons {
		count, err := s.countTaskSubmissions(&model.Evaluation{}, "evaluations", "comparison_id", c.ID, includeAnonymous)
		if err != nil {
			return err
		}
		stats.EvaluationsByScenario[c.ScenarioID] += count
	}

	var tasks []model.SingleVideoTask
	q = s.DB.Model(&model.SingleVideoTask{}).
		Joins("JOIN experiments ON experiments.id = single_video_tasks.experiment_id").
		Where("experiments.archived = ?", false)
	if group != "" {
		q = q.Where("experiments.`group` = ?", group)
	}
	if err := q.Find(&tasks).Error; err != nil {
		return err
	}

	for _, t := range tasks {
		count, err := s.countTaskSubmissions(&model.SingleVideoSubmission{}, "single_video_submissions", "task_id", t.ID, includeAnonymous)
		if err != nil {
			return err
		}
		stats.EvaluationsByScenario[t.ScenarioID] += count
	}
	return nil
}

func (s *StatsService) countTaskSubmissions(m interface{}, table, fk, taskID string, includeAnonymous bool) (int64, error) {
	var count int64
	q := s.DB.Model(m).
		Joins(fmt.Sprintf("JOIN participants ON participants.id = %s.participant_id", table)).
		Where(fmt.Sprintf("%s.%s = ?", table, fk), taskID).
		Where(fmt.Sprintf("%s.status = ?", table), model.EvaluationCompleted).
		Where("participants.status <> ?", model.ParticipantReturned)
	if !includeAnonymous {
		q = q.Where("participants.id NOT LIKE ?", "anon-session-%")
	}
	err := q.Count(&count).Error
	return count, err
}

func (s *StatsService) fromCache(key string) *SubmissionStats {
	if s.Redis == nil {
		return nil
	}
	val, err := s.Redis.Get(context.Background(), key).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Log.Warn("stats cache read failed", zap.Error(err))
		}
		return nil
	}
	var stats SubmissionStats
	if err := json.Unmarshal([]byte(val), &stats); err != nil {
		return nil
	}
	return &stats
}

func (s *StatsService) toCache(key string, stats *SubmissionStats) {
	if s.Redis == nil {
		return
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.Redis.Set(context.Background(), key, data, statsCacheTTL).Err(); err != nil {
		logger.Log.Warn("stats cache write failed", zap.Error(err))
	}
}
