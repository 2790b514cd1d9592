package genai

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// replySchema is the closed contract the model reply must satisfy. The
// intent enum is the whole recognized set; extra top-level keys are rejected.
var replySchema = map[string]interface{}{
	"type":                 "object",
	"required":             []string{"intent"},
	"additionalProperties": false,
	"properties": map[string]interface{}{
		"intent": map[string]interface{}{
			"type": "string",
			"enum": []string{"record_service", "search_service", "list_active_services"},
		},
		"confidence": map[string]interface{}{
			"type":    "number",
			"minimum": 0,
			"maximum": 1,
		},
		"fields": map[string]interface{}{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]interface{}{
				"client_name":         map[string]interface{}{"type": "string"},
				"client_phone":        map[string]interface{}{"type": "string"},
				"car_brand":           map[string]interface{}{"type": "string"},
				"car_model":           map[string]interface{}{"type": "string"},
				"car_color":           map[string]interface{}{"type": "string"},
				"car_year":            map[string]interface{}{"type": "integer"},
				"service_description": map[string]interface{}{"type": "string"},
				"cost":                map[string]interface{}{"type": "number"},
				"date":                map[string]interface{}{"type": "string"},
				"observations":        map[string]interface{}{"type": "string"},
				"status":              map[string]interface{}{"type": "string"},
			},
		},
	},
}

var replySchemaLoader = gojsonschema.NewGoLoader(replySchema)

// validateReply checks the raw reply document against the intent contract
// and returns a description of every violation.
func validateReply(document string) error {
	result, err := gojsonschema.Validate(replySchemaLoader, gojsonschema.NewStringLoader(document))
	if err != nil {
		return fmt.Errorf("reply is not valid JSON: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("reply violates intent contract: %s", strings.Join(errs, "; "))
	}

	return nil
}
