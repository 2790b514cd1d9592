// Package format renders persisted service records into the plain-text reply
// the assistant sends back to the user.
package format

import (
	"fmt"
	"strings"
	"time"

	"garage-assistant/internal/models"
)

const (
	divider    = "----------------------------------------"
	dateLayout = "02/01/2006"
)

// Services renders one block per record separated by a divider. An empty
// input renders to an empty string; the caller decides what "no results"
// should say.
func Services(details []models.ServiceDetail) string {
	if len(details) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(details))
	for _, detail := range details {
		blocks = append(blocks, serviceBlock(detail))
	}
	return strings.Join(blocks, "\n"+divider+"\n")
}

// Receipt renders the confirmation shown after a service is recorded.
func Receipt(receipt models.ServiceReceipt) string {
	detail := models.ServiceDetail{
		Record: receipt.Record,
		Car:    &receipt.Car,
		Client: &receipt.Client,
	}
	return "Service recorded:\n" + serviceBlock(detail)
}

func serviceBlock(detail models.ServiceDetail) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Client: %s\n", clientLine(detail.Client))
	fmt.Fprintf(&b, "Car: %s\n", carLine(detail.Car))
	fmt.Fprintf(&b, "Service: %s\n", detail.Record.Description)
	fmt.Fprintf(&b, "Date: %s", dateLine(detail.Record.Date))
	if detail.Record.Cost != nil {
		fmt.Fprintf(&b, "\nCost: %.2f", *detail.Record.Cost)
	}
	if detail.Record.Observations != "" {
		fmt.Fprintf(&b, "\nNotes: %s", detail.Record.Observations)
	}
	if detail.Record.Status != "" {
		fmt.Fprintf(&b, "\nStatus: %s", detail.Record.Status)
	}

	return b.String()
}

func clientLine(client *models.Client) string {
	if client == nil || strings.TrimSpace(client.Name) == "" {
		return "Unknown"
	}
	return client.Name
}

func carLine(car *models.Car) string {
	if car == nil {
		return "Unknown car"
	}
	brand := strings.TrimSpace(car.Brand)
	model := strings.TrimSpace(car.Model)
	switch {
	case brand == "" && model == "":
		return "Unknown car"
	case brand == "":
		return model
	case model == "":
		return brand
	default:
		return brand + " " + model
	}
}

func dateLine(date time.Time) string {
	if date.IsZero() {
		return "Unknown date"
	}
	return date.Format(dateLayout)
}
