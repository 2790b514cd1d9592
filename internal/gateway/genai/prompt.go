package genai

import (
	"bytes"
	"fmt"
	"text/template"
)

// classificationPromptTemplate is a closed contract with the model: the reply
// must be a JSON document whose intent is drawn from exactly the enumerated
// set. Anything else is rejected by the parser, never coerced.
const classificationPromptTemplate = `You classify a repair-shop worker's message and extract structured service data.

ALLOWED INTENTS (use EXACTLY one of these):
- "record_service": the worker wants to REGISTER/CREATE a new service
- "search_service": the worker wants to FIND/LOOK UP existing services
- "list_active_services": the worker wants to LIST all services still in progress

When extracting the car brand and model, be as precise as possible. If the
brand is not explicitly stated, infer it from the model. For example:
- "BMW 320i" has brand "BMW" and model "320i".
- "Corolla" has brand "Toyota" and model "Corolla".
If the brand cannot be inferred with confidence, leave it empty.

Reply with a single JSON object: {"intent": ..., "confidence": ..., "fields": {...}}.
The "fields" object may contain: client_name, client_phone, car_brand,
car_model, car_color, car_year, service_description, cost, date (YYYY-MM-DD),
observations, status. Omit fields the message does not mention.

WORKER'S MESSAGE: {{.Message}}

IMPORTANT: use ONLY "record_service", "search_service" or "list_active_services" as intent.`

var classificationTmpl = template.Must(template.New("classification").Parse(classificationPromptTemplate))

func buildClassificationPrompt(message string) (string, error) {
	var buf bytes.Buffer
	if err := classificationTmpl.Execute(&buf, struct{ Message string }{Message: message}); err != nil {
		return "", fmt.Errorf("failed to execute classification template: %w", err)
	}
	return buf.String(), nil
}
