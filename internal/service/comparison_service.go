package service

import (
	"encoding/json"
	"errors"
	"time"

	"owl_eval_backend/internal/model"
	"owl_eval_backend/internal/repository"
	"owl_eval_backend/internal/util"

	"gorm.io/gorm"
)

type ComparisonService struct {
	Comparisons *repository.ComparisonRepository
	SingleVideo *repository.SingleVideoRepository
	Evaluations *repository.EvaluationRepository
	Experiments *repository.ExperimentRepository
	Storage     *StorageService
}

func NewComparisonService(
	comparisonRepo *repository.ComparisonRepository,
	singleVideoRepo *repository.SingleVideoRepository,
	evaluationRepo *repository.EvaluationRepository,
	experimentRepo *repository.ExperimentRepository,
	storage *StorageService,
) *ComparisonService {
	return &ComparisonService{
		Comparisons: comparisonRepo,
		SingleVideo: singleVideoRepo,
		Evaluations: evaluationRepo,
		Experiments: experimentRepo,
		Storage:     storage,
	}
}

type ComparisonRequest struct {
	ExperimentID string          `json:"experimentId" binding:"required"`
	ScenarioID   string          `json:"scenarioId" binding:"required"`
	ModelA       string          `json:"modelA"`
	ModelB       string          `json:"modelB"`
	VideoAPath   string          `json:"videoAPath" binding:"required"`
	VideoBPath   string          `json:"videoBPath" binding:"required"`
	Metadata     json.RawMessage `json:"metadata"`
}

func (s *ComparisonService) Create(req ComparisonRequest) (*model.Comparison, error) {
	if _, err := s.Experiments.FindByID(req.ExperimentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExperimentNotFound
		}
		return nil, err
	}

	c := &model.Comparison{
		ExperimentID: req.ExperimentID,
		ScenarioID:   req.ScenarioID,
		ModelA:       req.ModelA,
		ModelB:       req.ModelB,
		VideoAPath:   req.VideoAPath,
		VideoBPath:   req.VideoBPath,
		Metadata:     req.Metadata,
	}
	if err := s.Comparisons.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ComparisonService) Update(id string, req ComparisonRequest) (*model.Comparison, error) {
	c, err := s.Comparisons.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrComparisonNotFound
		}
		return nil, err
	}

	c.ScenarioID = req.ScenarioID
	c.ModelA = req.ModelA
	c.ModelB = req.ModelB
	c.VideoAPath = req.VideoAPath
	c.VideoBPath = req.VideoBPath
	if req.Metadata != nil {
		c.Metadata = req.Metadata
	}
	if err := s.Comparisons.Update(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ComparisonService) Delete(id string) error {
	if _, err := s.Comparisons.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrComparisonNotFound
		}
		return err
	}
	return s.Comparisons.Delete(id)
}

// ComparisonListItem 对比任务列表项（含已完成评测数）
type ComparisonListItem struct {
	ComparisonID   string    `json:"comparison_id"`
	ScenarioID     string    `json:"scenario_id"`
	CreatedAt      time.Time `json:"created_at"`
	NumEvaluations int64     `json:"num_evaluations"`
	EvaluationURL  string    `json:"evaluation_url"`
}

// List 指定实验则取其全部任务；未指定则汇总所有active实验的任务。按创建时间倒序。
func (s *ComparisonService) List(experimentID string) ([]ComparisonListItem, error) {
	var comparisons []model.Comparison
	var err error

	if experimentID != "" {
		comparisons, err = s.Comparisons.ListByExperimentDesc(experimentID)
	} else {
		var actives []model.Experiment
		actives, err = s.Experiments.ListActive()
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(actives))
		for i, e := range actives {
			ids[i] = e.ID
		}
		if len(ids) == 0 {
			return []ComparisonListItem{}, nil
		}
		comparisons, err = s.Comparisons.ListByExperimentsDesc(ids)
	}
	if err != nil {
		return nil, err
	}

	items := make([]ComparisonListItem, len(comparisons))
	for i, c := range comparisons {
		count, err := s.Evaluations.CountCompletedByComparison(c.ID)
		if err != nil {
			return nil, err
		}
		items[i] = ComparisonListItem{
			ComparisonID:   c.ID,
			ScenarioID:     c.ScenarioID,
			CreatedAt:      c.CreatedAt,
			NumEvaluations: count,
			EvaluationURL:  "/evaluate/" + c.ID,
		}
	}
	return items, nil
}

// ScenarioMetadata 场景展示信息，缺省时由scenarioId补齐
type ScenarioMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ComparisonDetail 下发给评测页面的任务详情，视频地址已代理化
type ComparisonDetail struct {
	ComparisonID     string            `json:"comparison_id"`
	ScenarioID       string            `json:"scenario_id"`
	ScenarioMetadata ScenarioMetadata  `json:"scenario_metadata"`
	ModelAVideoPath  string            `json:"model_a_video_path"`
	ModelBVideoPath  string            `json:"model_b_video_path"`
	RandomizedLabels map[string]string `json:"randomized_labels"`
	Experiment       *model.Experiment `json:"experiment,omitempty"`
}

func (s *ComparisonService) GetDetail(id string) (*ComparisonDetail, error) {
	c, err := s.Comparisons.FindByIDWithExperiment(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrComparisonNotFound
		}
		return nil, err
	}
	return s.toDetail(c), nil
}

func (s *ComparisonService) toDetail(c *model.Comparison) *ComparisonDetail {
	meta := scenarioMetadataFrom(c.Metadata, c.ScenarioID)
	return &ComparisonDetail{
		ComparisonID:     c.ID,
		ScenarioID:       c.ScenarioID,
		ScenarioMetadata: meta,
		ModelAVideoPath:  s.Storage.ProxyVideoURL(c.VideoAPath),
		ModelBVideoPath:  s.Storage.ProxyVideoURL(c.VideoBPath),
		RandomizedLabels: map[string]string{
			"A": c.ModelA,
			"B": c.ModelB,
		},
		Experiment: c.Experiment,
	}
}

func scenarioMetadataFrom(raw json.RawMessage, scenarioID string) ScenarioMetadata {
	meta := ScenarioMetadata{}
	if len(raw) > 0 {
		var wrapper struct {
			Scenario ScenarioMetadata `json:"scenario"`
		}
		if err := json.Unmarshal(raw, &wrapper); err == nil {
			meta = wrapper.Scenario
		}
	}
	if meta.Name == "" {
		meta.Name = scenarioID
	}
	if meta.Description == "" {
		meta.Description = "Custom scenario: " + scenarioID
	}
	return meta
}

// TaskResult GET /api/tasks/:id 的返回：先按对比任务找，找不到再按单视频任务找
type TaskResult struct {
	Type string      `json:"type"`
	Task interface{} `json:"task"`
}

func (s *ComparisonService) GetTask(id string) (*TaskResult, error) {
	c, err := s.Comparisons.FindByIDWithExperiment(id)
	if err == nil {
		return &TaskResult{Type: "comparison", Task: s.toDetail(c)}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	t, err := s.SingleVideo.FindTaskByIDWithExperiment(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTaskNotFound
		}
		return nil, err
	}
	t.VideoPath = s.Storage.ProxyVideoURL(t.VideoPath)
	return &TaskResult{Type: "single_video", Task: t}, nil
}

type SingleVideoTaskRequest struct {
	ExperimentID string          `json:"experimentId" binding:"required"`
	ScenarioID   string          `json:"scenarioId" binding:"required"`
	ModelName    string          `json:"modelName"`
	VideoPath    string          `json:"videoPath" binding:"required"`
	Metadata     json.RawMessage `json:"metadata"`
}

func (s *ComparisonService) CreateSingleVideoTask(req SingleVideoTaskRequest) (*model.SingleVideoTask, error) {
	if _, err := s.Experiments.FindByID(req.ExperimentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExperimentNotFound
		}
		return nil, err
	}

	t := &model.SingleVideoTask{
		ExperimentID: req.ExperimentID,
		ScenarioID:   req.ScenarioID,
		ModelName:    req.ModelName,
		VideoPath:    req.VideoPath,
		Metadata:     req.Metadata,
	}
	if err := s.SingleVideo.CreateTask(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *ComparisonService) ListSingleVideoTasks(experimentID string) ([]model.SingleVideoTask, error) {
	return s.SingleVideo.ListTasksByExperiment(experimentID)
}

func (s *ComparisonService) DeleteSingleVideoTask(id string) error {
	if _, err := s.SingleVideo.FindTaskByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrTaskNotFound
		}
		return err
	}
	return s.SingleVideo.DeleteTask(id)
}
