package util

import "errors"

var (
	ErrUserNotFound         = errors.New("用户不存在")
	ErrEmailRegistered      = errors.New("该邮箱已被注册")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrMissingFields        = errors.New("missing required fields: comparison_id and dimension_scores")
	ErrComparisonNotFound   = errors.New("comparison not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrExperimentNotFound   = errors.New("experiment not found")
	ErrParticipantNotFound  = errors.New("participant not found")
	ErrSlugTaken            = errors.New("experiment slug already in use")
	ErrEvaluationCompleted  = errors.New("evaluation already completed for this participant")
	ErrVideoNotFound        = errors.New("video not found")
)
