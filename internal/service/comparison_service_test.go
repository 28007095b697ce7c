package service

import (
	"encoding/json"
	"testing"

	"owl_eval_backend/internal/config"
	"owl_eval_backend/internal/model"
	"owl_eval_backend/internal/repository"
	"owl_eval_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newComparisonService(db *gorm.DB) *ComparisonService {
	cfg := &config.Config{}
	cfg.Storage.Type = "minio"
	cfg.Storage.MinioBucket = "eval-videos"
	cfg.Storage.ProxyHosts = []string{"storage.googleapis.com"}
	storage := &StorageService{
		Provider: &LocalStorageProvider{Config: &cfg.Storage},
		cfg:      &cfg.Storage,
	}
	return NewComparisonService(
		repository.NewComparisonRepository(db),
		repository.NewSingleVideoRepository(db),
		repository.NewEvaluationRepository(db),
		repository.NewExperimentRepository(db),
		storage,
	)
}

func TestComparisonListCountsCompletedEvaluations(t *testing.T) {
	db := newTestDB(t)
	svc := newComparisonService(db)
	exp, comparisons := seedComparisons(t, db, 2)

	p := &model.Participant{ID: "prolific-1", ExperimentID: exp.ID, Status: model.ParticipantActive}
	require.NoError(t, db.Create(p).Error)

	evals := []model.Evaluation{
		{ComparisonID: comparisons[0].ID, ParticipantID: "prolific-1", ExperimentID: exp.ID, Status: model.EvaluationCompleted},
		{ComparisonID: comparisons[1].ID, ParticipantID: "prolific-1", ExperimentID: exp.ID, Status: model.EvaluationDraft},
	}
	for i := range evals {
		require.NoError(t, db.Create(&evals[i]).Error)
	}

	items, err := svc.List(exp.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// 创建时间倒序
	assert.Equal(t, comparisons[1].ID, items[0].ComparisonID)
	assert.EqualValues(t, 0, items[0].NumEvaluations)
	assert.Equal(t, comparisons[0].ID, items[1].ComparisonID)
	assert.EqualValues(t, 1, items[1].NumEvaluations)
	assert.Equal(t, "/evaluate/"+comparisons[0].ID, items[1].EvaluationURL)
}

func TestComparisonListFallsBackToActiveExperiments(t *testing.T) {
	db := newTestDB(t)
	svc := newComparisonService(db)

	active := &model.Experiment{UUIDBase: model.UUIDBase{ID: "exp-a"}, Slug: "a", Name: "A", Status: model.ExperimentActive}
	draft := &model.Experiment{UUIDBase: model.UUIDBase{ID: "exp-d"}, Slug: "d", Name: "D", Status: model.ExperimentDraft}
	require.NoError(t, db.Create(active).Error)
	require.NoError(t, db.Create(draft).Error)

	require.NoError(t, db.Create(&model.Comparison{
		UUIDBase: model.UUIDBase{ID: "c-active"}, ExperimentID: "exp-a", ScenarioID: "s", VideoAPath: "a", VideoBPath: "b",
	}).Error)
	require.NoError(t, db.Create(&model.Comparison{
		UUIDBase: model.UUIDBase{ID: "c-draft"}, ExperimentID: "exp-d", ScenarioID: "s", VideoAPath: "a", VideoBPath: "b",
	}).Error)

	items, err := svc.List("")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "c-active", items[0].ComparisonID)
}

func TestComparisonGetDetail(t *testing.T) {
	db := newTestDB(t)
	svc := newComparisonService(db)
	exp, _ := seedComparisons(t, db, 0)

	c := &model.Comparison{
		UUIDBase:     model.UUIDBase{ID: "c-detail"},
		ExperimentID: exp.ID,
		ScenarioID:   "city-drive",
		ModelA:       "model-beta",
		ModelB:       "model-alpha",
		VideoAPath:   "https://storage.googleapis.com/eval-videos/videos/beta/city.mp4",
		VideoBPath:   "https://storage.googleapis.com/eval-videos/videos/alpha/city.mp4",
		Metadata:     json.RawMessage(`{"scenario":{"name":"City Drive","description":"Driving through downtown"}}`),
	}
	require.NoError(t, db.Create(c).Error)

	detail, err := svc.GetDetail("c-detail")
	require.NoError(t, err)
	assert.Equal(t, "c-detail", detail.ComparisonID)
	assert.Equal(t, "City Drive", detail.ScenarioMetadata.Name)
	assert.Equal(t, "Driving through downtown", detail.ScenarioMetadata.Description)

	// 外部bucket直链改写为代理路径
	assert.Equal(t, "/api/video/videos/beta/city.mp4", detail.ModelAVideoPath)
	assert.Equal(t, "/api/video/videos/alpha/city.mp4", detail.ModelBVideoPath)

	assert.Equal(t, "model-beta", detail.RandomizedLabels["A"])
	assert.Equal(t, "model-alpha", detail.RandomizedLabels["B"])
	require.NotNil(t, detail.Experiment)
	assert.Equal(t, exp.ID, detail.Experiment.ID)

	_, err = svc.GetDetail("missing")
	assert.ErrorIs(t, err, util.ErrComparisonNotFound)
}

func TestComparisonGetDetailDefaultsScenarioMetadata(t *testing.T) {
	db := newTestDB(t)
	svc := newComparisonService(db)
	exp, _ := seedComparisons(t, db, 0)

	c := &model.Comparison{
		UUIDBase:     model.UUIDBase{ID: "c-bare"},
		ExperimentID: exp.ID,
		ScenarioID:   "desert-walk",
		VideoAPath:   "videos/a.mp4",
		VideoBPath:   "videos/b.mp4",
	}
	require.NoError(t, db.Create(c).Error)

	detail, err := svc.GetDetail("c-bare")
	require.NoError(t, err)
	assert.Equal(t, "desert-walk", detail.ScenarioMetadata.Name)
	assert.Equal(t, "Custom scenario: desert-walk", detail.ScenarioMetadata.Description)
	// 非外部直链原样返回
	assert.Equal(t, "videos/a.mp4", detail.ModelAVideoPath)
}

func TestGetTaskResolvesBothKinds(t *testing.T) {
	db := newTestDB(t)
	svc := newComparisonService(db)
	exp, comparisons := seedComparisons(t, db, 1)

	task := &model.SingleVideoTask{
		UUIDBase:     model.UUIDBase{ID: "sv-1"},
		ExperimentID: exp.ID,
		ScenarioID:   "solo",
		VideoPath:    "videos/solo.mp4",
	}
	require.NoError(t, db.Create(task).Error)

	r, err := svc.GetTask(comparisons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "comparison", r.Type)

	r, err = svc.GetTask("sv-1")
	require.NoError(t, err)
	assert.Equal(t, "single_video", r.Type)

	_, err = svc.GetTask("missing")
	assert.ErrorIs(t, err, util.ErrTaskNotFound)
}

func TestComparisonCreateRequiresExperiment(t *testing.T) {
	db := newTestDB(t)
	svc := newComparisonService(db)
	exp, _ := seedComparisons(t, db, 0)

	_, err := svc.Create(ComparisonRequest{
		ExperimentID: "missing",
		ScenarioID:   "s",
		VideoAPath:   "a",
		VideoBPath:   "b",
	})
	assert.ErrorIs(t, err, util.ErrExperimentNotFound)

	c, err := svc.Create(ComparisonRequest{
		ExperimentID: exp.ID,
		ScenarioID:   "s",
		ModelA:       "m1",
		ModelB:       "m2",
		VideoAPath:   "a",
		VideoBPath:   "b",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
}
