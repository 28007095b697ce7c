package service

import (
	"testing"

	"owl_eval_backend/internal/model"
	"owl_eval_backend/internal/repository"
	"owl_eval_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExperimentService(t *testing.T) *ExperimentService {
	t.Helper()
	db := newTestDB(t)
	return NewExperimentService(repository.NewExperimentRepository(db))
}

func TestExperimentCreateDefaults(t *testing.T) {
	svc := newExperimentService(t)

	e, err := svc.Create(ExperimentRequest{Slug: "winter-models", Name: "Winter Models"})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, model.ExperimentDraft, e.Status)
	assert.Equal(t, "comparison", e.EvaluationMode)
	assert.Equal(t, 5, e.TargetPerTask)
}

func TestExperimentSlugConflict(t *testing.T) {
	svc := newExperimentService(t)

	_, err := svc.Create(ExperimentRequest{Slug: "winter-models", Name: "Winter Models"})
	require.NoError(t, err)

	_, err = svc.Create(ExperimentRequest{Slug: "winter-models", Name: "Another"})
	assert.ErrorIs(t, err, util.ErrSlugTaken)

	other, err := svc.Create(ExperimentRequest{Slug: "spring-models", Name: "Spring"})
	require.NoError(t, err)

	// 改名到已占用的slug同样冲突
	_, err = svc.Update(other.ID, ExperimentRequest{Slug: "winter-models", Name: "Spring"})
	assert.ErrorIs(t, err, util.ErrSlugTaken)
}

func TestExperimentArchiveAndListActive(t *testing.T) {
	svc := newExperimentService(t)

	active, err := svc.Create(ExperimentRequest{Slug: "active-exp", Name: "Active", Status: model.ExperimentActive})
	require.NoError(t, err)
	archived, err := svc.Create(ExperimentRequest{Slug: "archived-exp", Name: "Archived", Status: model.ExperimentActive})
	require.NoError(t, err)

	require.NoError(t, svc.SetArchived(archived.ID, true))

	list, err := svc.ListActive()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, active.ID, list[0].ID)

	assert.ErrorIs(t, svc.SetArchived("missing", true), util.ErrExperimentNotFound)
}

func TestExperimentGetBySlug(t *testing.T) {
	svc := newExperimentService(t)

	created, err := svc.Create(ExperimentRequest{Slug: "lookup", Name: "Lookup"})
	require.NoError(t, err)

	got, err := svc.GetBySlug("lookup")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.GetBySlug("missing")
	assert.ErrorIs(t, err, util.ErrExperimentNotFound)
}
