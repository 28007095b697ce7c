package service

import (
	"testing"

	"owl_eval_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// seedStatsFixture 两个正常实验（g1/g2）加一个归档实验，
// 三类参与者：正常、returned、匿名session
func seedStatsFixture(t *testing.T, db *gorm.DB) {
	t.Helper()

	experiments := []model.Experiment{
		{UUIDBase: model.UUIDBase{ID: "exp-1"}, Slug: "exp-1", Name: "Exp 1", Status: model.ExperimentActive, Group: "g1"},
		{UUIDBase: model.UUIDBase{ID: "exp-2"}, Slug: "exp-2", Name: "Exp 2", Status: model.ExperimentArchived, Group: "g1", Archived: true},
		{UUIDBase: model.UUIDBase{ID: "exp-3"}, Slug: "exp-3", Name: "Exp 3", Status: model.ExperimentActive, Group: "g2"},
	}
	for i := range experiments {
		require.NoError(t, db.Create(&experiments[i]).Error)
	}

	comparisons := []model.Comparison{
		{UUIDBase: model.UUIDBase{ID: "c1"}, ExperimentID: "exp-1", ScenarioID: "s1", VideoAPath: "a", VideoBPath: "b"},
		{UUIDBase: model.UUIDBase{ID: "c2"}, ExperimentID: "exp-2", ScenarioID: "s2", VideoAPath: "a", VideoBPath: "b"},
		{UUIDBase: model.UUIDBase{ID: "c3"}, ExperimentID: "exp-3", ScenarioID: "s3", VideoAPath: "a", VideoBPath: "b"},
	}
	for i := range comparisons {
		require.NoError(t, db.Create(&comparisons[i]).Error)
	}

	task := model.SingleVideoTask{UUIDBase: model.UUIDBase{ID: "t1"}, ExperimentID: "exp-1", ScenarioID: "s1", VideoPath: "v"}
	require.NoError(t, db.Create(&task).Error)

	participants := []model.Participant{
		{ID: "prolific-1", ExperimentID: "exp-1", Status: model.ParticipantActive},
		{ID: "prolific-2", ExperimentID: "exp-1", Status: model.ParticipantReturned},
		{ID: "prolific-3", ExperimentID: "exp-1", Status: model.ParticipantActive},
		{ID: "anon-session-9", ExperimentID: "exp-1", Status: model.ParticipantActive},
	}
	for i := range participants {
		require.NoError(t, db.Create(&participants[i]).Error)
	}

	evaluations := []model.Evaluation{
		{ComparisonID: "c1", ParticipantID: "prolific-1", ExperimentID: "exp-1", Status: model.EvaluationCompleted},
		{ComparisonID: "c1", ParticipantID: "prolific-2", ExperimentID: "exp-1", Status: model.EvaluationCompleted},
		{ComparisonID: "c1", ParticipantID: "anon-session-9", ExperimentID: "exp-1", Status: model.EvaluationCompleted},
		{ComparisonID: "c2", ParticipantID: "prolific-1", ExperimentID: "exp-2", Status: model.EvaluationCompleted},
		{ComparisonID: "c3", ParticipantID: "prolific-1", ExperimentID: "exp-3", Status: model.EvaluationCompleted},
		{ComparisonID: "c1", ParticipantID: "prolific-3", ExperimentID: "exp-1", Status: model.EvaluationDraft},
	}
	for i := range evaluations {
		require.NoError(t, db.Create(&evaluations[i]).Error)
	}

	sub := model.SingleVideoSubmission{TaskID: "t1", ParticipantID: "prolific-1", ExperimentID: "exp-1", Status: model.EvaluationCompleted}
	require.NoError(t, db.Create(&sub).Error)
}

func TestEvaluationStatus(t *testing.T) {
	db := newTestDB(t)
	seedStatsFixture(t, db)
	svc := NewStatsService(db, nil)

	status, err := svc.EvaluationStatus()
	require.NoError(t, err)
	assert.EqualValues(t, 5, status.Completed)
	assert.EqualValues(t, 1, status.Draft)
	assert.EqualValues(t, 6, status.Total)
	assert.Zero(t, status.Active)
}

func TestSubmissionStatsExcludesArchivedReturnedAnonymous(t *testing.T) {
	db := newTestDB(t)
	seedStatsFixture(t, db)
	svc := NewStatsService(db, nil)

	stats, err := svc.SubmissionStats("", false)
	require.NoError(t, err)

	// 归档实验的任务和提交不计入
	assert.EqualValues(t, 2, stats.TotalComparisonTasks)
	assert.EqualValues(t, 1, stats.TotalSingleVideoTasks)
	assert.EqualValues(t, 3, stats.TotalTasks)

	// returned和匿名session参与者的提交被排除
	assert.EqualValues(t, 2, stats.TotalComparisonSubs)
	assert.EqualValues(t, 1, stats.TotalSingleVideoSubs)
	assert.EqualValues(t, 3, stats.TotalSubmissions)

	assert.Equal(t, 5, stats.TargetEvaluationsPerTask)
	assert.EqualValues(t, 2, stats.EvaluationsByScenario["s1"])
	assert.EqualValues(t, 1, stats.EvaluationsByScenario["s3"])
	assert.NotContains(t, stats.EvaluationsByScenario, "s2")
}

func TestSubmissionStatsIncludeAnonymous(t *testing.T) {
	db := newTestDB(t)
	seedStatsFixture(t, db)
	svc := NewStatsService(db, nil)

	stats, err := svc.SubmissionStats("", true)
	require.NoError(t, err)

	assert.EqualValues(t, 3, stats.TotalComparisonSubs)
	assert.EqualValues(t, 4, stats.TotalSubmissions)
	assert.EqualValues(t, 3, stats.EvaluationsByScenario["s1"])
}

func TestSubmissionStatsGroupFilter(t *testing.T) {
	db := newTestDB(t)
	seedStatsFixture(t, db)
	svc := NewStatsService(db, nil)

	stats, err := svc.SubmissionStats("g1", false)
	require.NoError(t, err)

	assert.EqualValues(t, 1, stats.TotalComparisonTasks)
	assert.EqualValues(t, 2, stats.TotalTasks)
	assert.EqualValues(t, 1, stats.TotalComparisonSubs)
	assert.EqualValues(t, 2, stats.TotalSubmissions)
	assert.EqualValues(t, 2, stats.EvaluationsByScenario["s1"])
	assert.NotContains(t, stats.EvaluationsByScenario, "s3")
}
