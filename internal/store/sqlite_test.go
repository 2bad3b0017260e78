package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/blueprint-cli/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "B2B SaaS selling to dentists")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	require.NoError(t, s.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusRunning, got.Status)
	assert.Equal(t, "B2B SaaS selling to dentists", got.BusinessContext)
	assert.Nil(t, got.Result)
}

func TestSQLiteUpdateRunResult(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "ctx")
	require.NoError(t, err)

	t.Run("successful result marks complete", func(t *testing.T) {
		result := &model.GenerationResult{
			Success: true,
			Blueprint: &model.Blueprint{
				Market: &model.Section[model.MarketOverview]{
					Data:  model.MarketOverview{MarketMaturity: model.MaturityMature},
					Model: "sonar-pro",
				},
				Metadata: model.BlueprintMetadata{SchemaVersion: model.SchemaVersion},
			},
		}
		require.NoError(t, s.UpdateRunResult(ctx, run.ID, result))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusComplete, got.Status)
		require.NotNil(t, got.Result)
		require.NotNil(t, got.Result.Blueprint.Market)
		assert.Equal(t, model.MaturityMature, got.Result.Blueprint.Market.Data.MarketMaturity)
	})

	t.Run("failed result marks failed and keeps partial output", func(t *testing.T) {
		result := &model.GenerationResult{
			Success:       false,
			Error:         "research: offer call failed",
			FailedSection: model.SectionOffer,
			Blueprint:     &model.Blueprint{},
		}
		require.NoError(t, s.UpdateRunResult(ctx, run.ID, result))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusFailed, got.Status)
		assert.Equal(t, model.SectionOffer, got.Result.FailedSection)
	})
}

func TestSQLiteNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetRun(ctx, "nope")
	assert.Error(t, err)

	assert.Error(t, s.UpdateRunStatus(ctx, "nope", model.RunStatusRunning))
	assert.Error(t, s.UpdateRunResult(ctx, "nope", &model.GenerationResult{Success: true}))
}

func TestSQLiteListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateRun(ctx, "first")
	require.NoError(t, err)
	b, err := s.CreateRun(ctx, "second")
	require.NoError(t, err)
	require.NoError(t, s.UpdateRunStatus(ctx, b.ID, model.RunStatusRunning))

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	running, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusRunning})
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, b.ID, running[0].ID)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
