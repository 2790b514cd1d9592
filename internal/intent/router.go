// Package intent maps a classified intent onto a typed business request.
package intent

import (
	"fmt"

	"garage-assistant/internal/common/errors"
	"garage-assistant/internal/models"
)

// Route is a pure mapping from the classified intent to a request variant.
// Extracted fields are carried forward untouched. Unrecognized intents are
// rejected upstream by the gateway parser; the router never defaults one to
// a known intent.
func Route(classified *models.ClassifiedIntent) (models.Request, error) {
	if classified == nil {
		return nil, errors.NewClassificationError("classified intent is nil")
	}

	switch classified.Intent {
	case models.IntentRecordService:
		return models.RecordRequest{Fields: classified.Fields}, nil
	case models.IntentSearchService:
		return models.SearchRequest{Fields: classified.Fields}, nil
	case models.IntentListActiveServices:
		return models.ListActiveRequest{}, nil
	default:
		return nil, errors.NewClassificationError(fmt.Sprintf("intent %q is not recognized", classified.Intent))
	}
}
