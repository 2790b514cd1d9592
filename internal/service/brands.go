package service

import "strings"

// knownModels maps lowercase model names to the brand they belong to. A model
// sold under more than one brand must not appear here; inference stays silent
// for those.
var knownModels = map[string]string{
	"corolla":  "Toyota",
	"hilux":    "Toyota",
	"etios":    "Toyota",
	"yaris":    "Toyota",
	"civic":    "Honda",
	"fit":      "Honda",
	"hr-v":     "Honda",
	"city":     "Honda",
	"gol":      "Volkswagen",
	"polo":     "Volkswagen",
	"golf":     "Volkswagen",
	"virtus":   "Volkswagen",
	"t-cross":  "Volkswagen",
	"uno":      "Fiat",
	"palio":    "Fiat",
	"argo":     "Fiat",
	"mobi":     "Fiat",
	"toro":     "Fiat",
	"strada":   "Fiat",
	"onix":     "Chevrolet",
	"prisma":   "Chevrolet",
	"cruze":    "Chevrolet",
	"s10":      "Chevrolet",
	"tracker":  "Chevrolet",
	"ka":       "Ford",
	"fiesta":   "Ford",
	"ecosport": "Ford",
	"ranger":   "Ford",
	"kwid":     "Renault",
	"sandero":  "Renault",
	"duster":   "Renault",
	"logan":    "Renault",
	"hb20":     "Hyundai",
	"creta":    "Hyundai",
	"tucson":   "Hyundai",
	"sportage": "Kia",
	"cerato":   "Kia",
}

// inferBrand returns the brand a model name unambiguously implies, or ""
// when the model is unknown or the model string already carries the brand.
// Only the first token is consulted so "320i" stays brandless while
// "Corolla XEi" still resolves to Toyota.
func inferBrand(model string) string {
	trimmed := strings.TrimSpace(strings.ToLower(model))
	if trimmed == "" {
		return ""
	}
	if brand, ok := knownModels[trimmed]; ok {
		return brand
	}
	first := strings.Fields(trimmed)[0]
	if brand, ok := knownModels[first]; ok {
		return brand
	}
	return ""
}
