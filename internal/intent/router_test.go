package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garage-assistant/internal/common/errors"
	"garage-assistant/internal/models"
)

func TestRoute_Mapping(t *testing.T) {
	fields := models.ServiceFields{
		ClientName:         "Maria",
		CarModel:           "Corolla",
		ServiceDescription: "oil change",
	}

	tests := []struct {
		name     string
		intent   models.Intent
		validate func(t *testing.T, req models.Request)
	}{
		{
			name:   "record_service maps to RecordRequest with fields intact",
			intent: models.IntentRecordService,
			validate: func(t *testing.T, req models.Request) {
				record, ok := req.(models.RecordRequest)
				require.True(t, ok)
				assert.Equal(t, fields, record.Fields)
			},
		},
		{
			name:   "search_service maps to SearchRequest with fields intact",
			intent: models.IntentSearchService,
			validate: func(t *testing.T, req models.Request) {
				search, ok := req.(models.SearchRequest)
				require.True(t, ok)
				assert.Equal(t, fields, search.Fields)
			},
		},
		{
			name:   "list_active_services maps to ListActiveRequest",
			intent: models.IntentListActiveServices,
			validate: func(t *testing.T, req models.Request) {
				_, ok := req.(models.ListActiveRequest)
				require.True(t, ok)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Route(&models.ClassifiedIntent{Intent: tt.intent, Fields: fields})
			require.NoError(t, err)
			tt.validate(t, req)
		})
	}
}

func TestRoute_NeverDefaults(t *testing.T) {
	for _, raw := range []string{"", "delete_service", "RECORD_SERVICE", "record"} {
		req, err := Route(&models.ClassifiedIntent{Intent: models.Intent(raw)})
		require.Error(t, err, "intent %q must be rejected, not coerced", raw)
		assert.Nil(t, req)
		assert.Equal(t, errors.ErrCodeClassification, errors.Code(err))
	}
}

func TestRoute_NilClassified(t *testing.T) {
	_, err := Route(nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeClassification, errors.Code(err))
}
