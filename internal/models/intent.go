package models

// Intent is the caller's high-level goal. The set is closed: any value
// outside it is a classification failure, never a fourth intent.
type Intent string

const (
	IntentRecordService      Intent = "record_service"
	IntentSearchService      Intent = "search_service"
	IntentListActiveServices Intent = "list_active_services"
)

// ParseIntent maps a raw intent string onto the closed set. It performs no
// coercion: unrecognized values return false.
func ParseIntent(raw string) (Intent, bool) {
	switch Intent(raw) {
	case IntentRecordService, IntentSearchService, IntentListActiveServices:
		return Intent(raw), true
	default:
		return "", false
	}
}

// ServiceFields is the set of fields the classifier may extract from an
// utterance. All fields are optional; Record additionally requires
// ServiceDescription.
type ServiceFields struct {
	ClientName         string   `json:"client_name,omitempty"`
	ClientPhone        string   `json:"client_phone,omitempty"`
	CarBrand           string   `json:"car_brand,omitempty"`
	CarModel           string   `json:"car_model,omitempty"`
	CarColor           string   `json:"car_color,omitempty"`
	CarYear            int      `json:"car_year,omitempty"`
	ServiceDescription string   `json:"service_description,omitempty"`
	Cost               *float64 `json:"cost,omitempty"`
	DateString         string   `json:"date,omitempty"`
	Observations       string   `json:"observations,omitempty"`
	Status             string   `json:"status,omitempty"`
}

// ClassifiedIntent is the typed intermediate structure produced by the LLM
// gateway from raw model output. It is never persisted.
type ClassifiedIntent struct {
	Intent     Intent        `json:"intent"`
	Confidence *float64      `json:"confidence,omitempty"`
	Fields     ServiceFields `json:"fields"`
}
