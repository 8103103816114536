package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordBeforeInit(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordStage(ctx, "text", "success", 1.2)
		RecordAPICall(ctx, "gemini", "gemini-3-flash-preview", 0.8)
		RecordRequest(ctx)
		RecordExport(ctx, true)
		RecordArchived(ctx, "direct")
	})
}

func TestInit(t *testing.T) {
	require.NoError(t, Init())

	assert.NotNil(t, GenerationRequestsTotal)
	assert.NotNil(t, GenerationStageTotal)
	assert.NotNil(t, GenerationStageDuration)
	assert.NotNil(t, ExternalAPICallsTotal)
	assert.NotNil(t, ExternalAPIDuration)
	assert.NotNil(t, ExportsTotal)
	assert.NotNil(t, ArchivedRecipesTotal)

	assert.NotPanics(t, func() {
		RecordStage(context.Background(), "image", "failure", 3)
	})
}
