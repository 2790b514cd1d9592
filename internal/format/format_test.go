package format

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"garage-assistant/internal/models"
)

func sampleDetail() models.ServiceDetail {
	cost := 450.0
	return models.ServiceDetail{
		Record: models.ServiceRecord{
			ID:          42,
			Description: "troca de óleo",
			Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			Cost:        &cost,
			Status:      models.StatusActive,
		},
		Car:    &models.Car{Brand: "Fiat", Model: "Uno"},
		Client: &models.Client{Name: "João Silva"},
	}
}

func TestServices_EmptyInputRendersEmptyString(t *testing.T) {
	assert.Equal(t, "", Services(nil))
	assert.Equal(t, "", Services([]models.ServiceDetail{}))
}

func TestServices_SingleBlock(t *testing.T) {
	out := Services([]models.ServiceDetail{sampleDetail()})

	assert.Contains(t, out, "Client: João Silva")
	assert.Contains(t, out, "Car: Fiat Uno")
	assert.Contains(t, out, "Service: troca de óleo")
	assert.Contains(t, out, "Date: 10/03/2025")
	assert.Contains(t, out, "Cost: 450.00")
	assert.Contains(t, out, "Status: active")
	assert.NotContains(t, out, divider, "single record needs no divider")
}

func TestServices_BlocksSeparatedByDivider(t *testing.T) {
	out := Services([]models.ServiceDetail{sampleDetail(), sampleDetail(), sampleDetail()})

	assert.Equal(t, 2, strings.Count(out, divider))
}

func TestServices_Fallbacks(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.ServiceDetail)
		want   string
	}{
		{"nil client", func(d *models.ServiceDetail) { d.Client = nil }, "Client: Unknown"},
		{"blank client name", func(d *models.ServiceDetail) { d.Client.Name = "   " }, "Client: Unknown"},
		{"nil car", func(d *models.ServiceDetail) { d.Car = nil }, "Car: Unknown car"},
		{"blank brand and model", func(d *models.ServiceDetail) { d.Car.Brand, d.Car.Model = " ", "" }, "Car: Unknown car"},
		{"model only", func(d *models.ServiceDetail) { d.Car.Brand = "" }, "Car: Uno"},
		{"brand only", func(d *models.ServiceDetail) { d.Car.Model = "" }, "Car: Fiat"},
		{"zero date", func(d *models.ServiceDetail) { d.Record.Date = time.Time{} }, "Date: Unknown date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail := sampleDetail()
			tt.mutate(&detail)

			assert.Contains(t, Services([]models.ServiceDetail{detail}), tt.want)
		})
	}
}

func TestServices_OptionalLinesOmitted(t *testing.T) {
	detail := sampleDetail()
	detail.Record.Cost = nil
	detail.Record.Observations = ""

	out := Services([]models.ServiceDetail{detail})

	assert.NotContains(t, out, "Cost:")
	assert.NotContains(t, out, "Notes:")
}

func TestReceipt(t *testing.T) {
	cost := 120.5
	out := Receipt(models.ServiceReceipt{
		Client: models.Client{Name: "Maria"},
		Car:    models.Car{Brand: "Toyota", Model: "Corolla"},
		Record: models.ServiceRecord{
			Description: "alinhamento",
			Date:        time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
			Cost:        &cost,
			Status:      models.StatusActive,
		},
	})

	assert.True(t, strings.HasPrefix(out, "Service recorded:\n"))
	assert.Contains(t, out, "Client: Maria")
	assert.Contains(t, out, "Car: Toyota Corolla")
	assert.Contains(t, out, "Date: 02/01/2025")
	assert.Contains(t, out, "Cost: 120.50")
}
