package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"owl_eval_backend/internal/model"
	"owl_eval_backend/internal/repository"
	"owl_eval_backend/internal/util"
	"owl_eval_backend/pkg/database"
	"owl_eval_backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.Log = zap.NewNop()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newSubmissionService(db *gorm.DB) *SubmissionService {
	return NewSubmissionService(
		repository.NewComparisonRepository(db),
		repository.NewParticipantRepository(db),
		repository.NewEvaluationRepository(db),
		repository.NewSingleVideoRepository(db),
		db,
	)
}

// seedComparisons 建一个实验和n个对比任务，created_at严格递增
func seedComparisons(t *testing.T, db *gorm.DB, n int) (*model.Experiment, []model.Comparison) {
	t.Helper()
	exp := &model.Experiment{
		Slug:   "test-exp",
		Name:   "Test Experiment",
		Status: model.ExperimentActive,
	}
	require.NoError(t, db.Create(exp).Error)

	base := time.Now().Add(-time.Hour)
	comparisons := make([]model.Comparison, 0, n)
	for i := 0; i < n; i++ {
		c := model.Comparison{
			UUIDBase:     model.UUIDBase{ID: fmt.Sprintf("comp-%d", i+1), CreatedAt: base.Add(time.Duration(i) * time.Minute)},
			ExperimentID: exp.ID,
			ScenarioID:   fmt.Sprintf("scenario-%d", i+1),
			ModelA:       "model-alpha",
			ModelB:       "model-beta",
			VideoAPath:   fmt.Sprintf("videos/a%d.mp4", i+1),
			VideoBPath:   fmt.Sprintf("videos/b%d.mp4", i+1),
		}
		require.NoError(t, db.Create(&c).Error)
		comparisons = append(comparisons, c)
	}
	return exp, comparisons
}

func TestAggregateChosenModel(t *testing.T) {
	cases := []struct {
		name   string
		scores map[string]string
		want   string
	}{
		{"majority A", map[string]string{"overall": "A", "quality": "A", "motion": "B"}, model.ChosenA},
		{"majority B", map[string]string{"overall": "B", "quality": "B", "motion": "A"}, model.ChosenB},
		{"tie", map[string]string{"overall": "A", "quality": "B"}, model.ChosenEqual},
		{"all equal votes", map[string]string{"overall": "Equal", "quality": "Equal"}, model.ChosenEqual},
		{"empty", map[string]string{}, model.ChosenEqual},
		{"unknown values ignored", map[string]string{"overall": "A", "quality": "skip", "motion": "skip"}, model.ChosenA},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AggregateChosenModel(tc.scores))
		})
	}
}

func TestSubmitEvaluationValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)
	seedComparisons(t, db, 1)

	_, err := svc.SubmitEvaluation(SubmitEvaluationRequest{
		DimensionScores: map[string]string{"overall": "A"},
	})
	assert.ErrorIs(t, err, util.ErrMissingFields)

	_, err = svc.SubmitEvaluation(SubmitEvaluationRequest{ComparisonID: "comp-1"})
	assert.ErrorIs(t, err, util.ErrMissingFields)
}

func TestSubmitEvaluationComparisonNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)
	seedComparisons(t, db, 1)

	_, err := svc.SubmitEvaluation(SubmitEvaluationRequest{
		ComparisonID:    "no-such-comparison",
		DimensionScores: map[string]string{"overall": "A"},
		SessionID:       "session-1",
	})
	assert.ErrorIs(t, err, util.ErrComparisonNotFound)

	// 失败的提交不应留下任何参与者记录
	var count int64
	require.NoError(t, db.Model(&model.Participant{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSubmitEvaluationAnonymousFlow(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)
	exp, comparisons := seedComparisons(t, db, 3)

	result, err := svc.SubmitEvaluation(SubmitEvaluationRequest{
		ComparisonID:    "comp-1",
		DimensionScores: map[string]string{"overall": "A", "quality": "A", "motion": "B"},
		SessionID:       "session-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.EvaluationID)
	assert.Equal(t, exp.ID, result.ExperimentID)
	require.NotNil(t, result.NextComparisonID)
	assert.Equal(t, comparisons[1].ID, *result.NextComparisonID)

	// session派生的参与者记录，快照了实验全部任务
	var p model.Participant
	require.NoError(t, db.Where("id = ?", "anon-session-1").First(&p).Error)
	assert.Equal(t, exp.ID, p.ExperimentID)
	assert.Equal(t, model.ParticipantActive, p.Status)
	assert.Equal(t, []string{"comp-1", "comp-2", "comp-3"}, p.AssignedIDs())

	var e model.Evaluation
	require.NoError(t, db.Where("id = ?", result.EvaluationID).First(&e).Error)
	assert.Equal(t, model.ChosenA, e.ChosenModel)
	assert.Equal(t, model.EvaluationCompleted, e.Status)
	assert.Equal(t, "anon-session-1", e.ParticipantID)
}

func TestSubmitEvaluationDefaultSession(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)
	seedComparisons(t, db, 1)

	_, err := svc.SubmitEvaluation(SubmitEvaluationRequest{
		ComparisonID:    "comp-1",
		DimensionScores: map[string]string{"overall": "B"},
	})
	require.NoError(t, err)

	var p model.Participant
	require.NoError(t, db.Where("id = ?", "anon-anon-session").First(&p).Error)
	assert.True(t, strings.HasPrefix(p.ProlificID, "anon-"))
	assert.Equal(t, "anon-session", p.SessionID)
}

func TestSubmitEvaluationDuplicateRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)
	seedComparisons(t, db, 2)

	req := SubmitEvaluationRequest{
		ComparisonID:    "comp-1",
		DimensionScores: map[string]string{"overall": "A"},
		SessionID:       "session-dup",
	}
	first, err := svc.SubmitEvaluation(req)
	require.NoError(t, err)

	// 同一参与者重复提交同一任务：409，原记录不被覆盖
	req.DimensionScores = map[string]string{"overall": "B"}
	_, err = svc.SubmitEvaluation(req)
	assert.ErrorIs(t, err, util.ErrEvaluationCompleted)

	var e model.Evaluation
	require.NoError(t, db.Where("id = ?", first.EvaluationID).First(&e).Error)
	assert.Equal(t, model.ChosenA, e.ChosenModel)

	var count int64
	require.NoError(t, db.Model(&model.Evaluation{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSubmitEvaluationUpgradesDraft(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)
	seedComparisons(t, db, 1)

	p := &model.Participant{ID: "anon-session-draft", ExperimentID: "x", SessionID: "session-draft"}
	p.SetAssignedIDs([]string{"comp-1"})
	require.NoError(t, db.Create(p).Error)

	draft := &model.Evaluation{
		ComparisonID:  "comp-1",
		ParticipantID: "anon-session-draft",
		ExperimentID:  "x",
		Status:        model.EvaluationDraft,
	}
	require.NoError(t, db.Create(draft).Error)

	result, err := svc.SubmitEvaluation(SubmitEvaluationRequest{
		ComparisonID:    "comp-1",
		DimensionScores: map[string]string{"overall": "B"},
		SessionID:       "session-draft",
	})
	require.NoError(t, err)
	assert.Equal(t, draft.ID, result.EvaluationID)

	var e model.Evaluation
	require.NoError(t, db.Where("id = ?", draft.ID).First(&e).Error)
	assert.Equal(t, model.EvaluationCompleted, e.Status)
	assert.Equal(t, model.ChosenB, e.ChosenModel)

	var count int64
	require.NoError(t, db.Model(&model.Evaluation{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSubmitEvaluationNextTaskProgression(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)
	_, comparisons := seedComparisons(t, db, 3)

	scores := map[string]string{"overall": "A"}
	session := "session-progress"

	r1, err := svc.SubmitEvaluation(SubmitEvaluationRequest{ComparisonID: comparisons[0].ID, DimensionScores: scores, SessionID: session})
	require.NoError(t, err)
	require.NotNil(t, r1.NextComparisonID)
	assert.Equal(t, comparisons[1].ID, *r1.NextComparisonID)

	r2, err := svc.SubmitEvaluation(SubmitEvaluationRequest{ComparisonID: comparisons[1].ID, DimensionScores: scores, SessionID: session})
	require.NoError(t, err)
	require.NotNil(t, r2.NextComparisonID)
	assert.Equal(t, comparisons[2].ID, *r2.NextComparisonID)

	// 乱序完成也只跳过已完成的任务
	r3, err := svc.SubmitEvaluation(SubmitEvaluationRequest{ComparisonID: comparisons[2].ID, DimensionScores: scores, SessionID: session})
	require.NoError(t, err)
	assert.Nil(t, r3.NextComparisonID)
}

func TestSubmitEvaluationIdentifiedParticipantCompletion(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)
	exp, comparisons := seedComparisons(t, db, 2)

	p := &model.Participant{
		ID:           "5f8a7b2c1d",
		ProlificID:   "5f8a7b2c1d",
		ExperimentID: exp.ID,
		SessionID:    "prolific-session",
		Status:       model.ParticipantActive,
	}
	p.SetAssignedIDs([]string{comparisons[0].ID, comparisons[1].ID})
	require.NoError(t, db.Create(p).Error)

	scores := map[string]string{"overall": "A"}

	r1, err := svc.SubmitEvaluation(SubmitEvaluationRequest{
		ComparisonID:    comparisons[0].ID,
		DimensionScores: scores,
		ParticipantID:   p.ID,
	})
	require.NoError(t, err)
	// 显式participant_id不走下一任务查找
	assert.Nil(t, r1.NextComparisonID)

	var got model.Participant
	require.NoError(t, db.Where("id = ?", p.ID).First(&got).Error)
	assert.Equal(t, model.ParticipantActive, got.Status)

	_, err = svc.SubmitEvaluation(SubmitEvaluationRequest{
		ComparisonID:    comparisons[1].ID,
		DimensionScores: scores,
		ParticipantID:   p.ID,
	})
	require.NoError(t, err)

	require.NoError(t, db.Where("id = ?", p.ID).First(&got).Error)
	assert.Equal(t, model.ParticipantCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
}

func TestSubmitEvaluationIdentifiedParticipantMissing(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)
	_, comparisons := seedComparisons(t, db, 1)

	// 分配环节未预建记录时提交仍然成功
	result, err := svc.SubmitEvaluation(SubmitEvaluationRequest{
		ComparisonID:    comparisons[0].ID,
		DimensionScores: map[string]string{"overall": "A"},
		ParticipantID:   "unknown-prolific-id",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.EvaluationID)
	assert.Nil(t, result.NextComparisonID)
}

func TestSubmitEvaluationClientMetadata(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)
	seedComparisons(t, db, 1)

	secs := 42.5
	result, err := svc.SubmitEvaluation(SubmitEvaluationRequest{
		ComparisonID:          "comp-1",
		DimensionScores:       map[string]string{"overall": "A"},
		SessionID:             "session-meta",
		EvaluatorID:           "rater-7",
		CompletionTimeSeconds: &secs,
		DetailedRatings:       json.RawMessage(`{"overall":{"A":5,"B":2}}`),
	})
	require.NoError(t, err)

	var e model.Evaluation
	require.NoError(t, db.Where("id = ?", result.EvaluationID).First(&e).Error)
	require.NotNil(t, e.CompletionTimeSeconds)
	assert.Equal(t, 42.5, *e.CompletionTimeSeconds)

	var meta model.EvaluationClientMetadata
	require.NoError(t, json.Unmarshal(e.ClientMetadata, &meta))
	assert.Equal(t, "rater-7", meta.EvaluatorID)
	assert.JSONEq(t, `{"overall":{"A":5,"B":2}}`, string(meta.DetailedRatings))
	_, err = time.Parse(time.RFC3339, meta.SubmittedAt)
	assert.NoError(t, err)
}

func TestSubmitEvaluationMetadataDefaults(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)
	seedComparisons(t, db, 1)

	result, err := svc.SubmitEvaluation(SubmitEvaluationRequest{
		ComparisonID:    "comp-1",
		DimensionScores: map[string]string{"overall": "A"},
		SessionID:       "session-defaults",
	})
	require.NoError(t, err)

	var e model.Evaluation
	require.NoError(t, db.Where("id = ?", result.EvaluationID).First(&e).Error)

	var meta model.EvaluationClientMetadata
	require.NoError(t, json.Unmarshal(e.ClientMetadata, &meta))
	assert.Equal(t, "anonymous", meta.EvaluatorID)
	assert.JSONEq(t, `{}`, string(meta.DetailedRatings))
}

func TestSubmitSingleVideo(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)
	exp, _ := seedComparisons(t, db, 0)

	task := &model.SingleVideoTask{
		UUIDBase:     model.UUIDBase{ID: "task-1"},
		ExperimentID: exp.ID,
		ScenarioID:   "scenario-sv",
		ModelName:    "model-alpha",
		VideoPath:    "videos/sv1.mp4",
	}
	require.NoError(t, db.Create(task).Error)

	id, err := svc.SubmitSingleVideo(SubmitSingleVideoRequest{
		TaskID:    "task-1",
		Scores:    map[string]interface{}{"quality": 4, "realism": 3},
		SessionID: "session-sv",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	var s model.SingleVideoSubmission
	require.NoError(t, db.Where("id = ?", id).First(&s).Error)
	assert.Equal(t, model.EvaluationCompleted, s.Status)
	assert.Equal(t, "anon-session-sv", s.ParticipantID)
	assert.Equal(t, exp.ID, s.ExperimentID)

	// 重复提交同一任务：409
	_, err = svc.SubmitSingleVideo(SubmitSingleVideoRequest{
		TaskID:    "task-1",
		Scores:    map[string]interface{}{"quality": 1},
		SessionID: "session-sv",
	})
	assert.ErrorIs(t, err, util.ErrEvaluationCompleted)
}

func TestSubmitSingleVideoValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionService(db)

	_, err := svc.SubmitSingleVideo(SubmitSingleVideoRequest{Scores: map[string]interface{}{"q": 1}})
	assert.ErrorIs(t, err, util.ErrMissingFields)

	_, err = svc.SubmitSingleVideo(SubmitSingleVideoRequest{TaskID: "t", Scores: map[string]interface{}{"q": 1}})
	assert.ErrorIs(t, err, util.ErrTaskNotFound)
}
