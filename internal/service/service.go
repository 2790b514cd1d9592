// Package service implements the garage's domain operations: recording a
// service for a client's car and querying recorded services. It owns the
// find-or-create semantics for clients and cars so repeated mentions of the
// same person or vehicle converge on a single row.
package service

import (
	"context"
	"strings"
	"time"

	"garage-assistant/internal/common/errors"
	"garage-assistant/internal/common/logger"
	"garage-assistant/internal/models"
	"garage-assistant/internal/repository"
)

// Manager coordinates the repository for the three chat operations.
type Manager struct {
	store  repository.Store
	logger logger.Logger
	now    func() time.Time
}

func NewManager(store repository.Store, log logger.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "service"}),
		now:    time.Now,
	}
}

// Record registers a service for a client's car, creating the client and the
// car on first mention. The whole resolution runs in one transaction so a
// failed insert never leaves a half-created client behind.
func (m *Manager) Record(ctx context.Context, fields models.ServiceFields) (*models.ServiceReceipt, error) {
	name := strings.TrimSpace(fields.ClientName)
	if name == "" {
		return nil, errors.NewValidationError("client name is required to record a service")
	}
	carModel := strings.TrimSpace(fields.CarModel)
	if carModel == "" {
		return nil, errors.NewValidationError("car model is required to record a service")
	}
	description := strings.TrimSpace(fields.ServiceDescription)
	if description == "" {
		return nil, errors.NewValidationError("service description is required")
	}

	brand := strings.TrimSpace(fields.CarBrand)
	if brand == "" {
		if inferred := inferBrand(carModel); inferred != "" {
			m.logger.Debug("inferred car brand from model", map[string]interface{}{
				"model": carModel,
				"brand": inferred,
			})
			brand = inferred
		}
	}

	date, fellBack := resolveDate(fields.DateString, m.now)
	if fellBack && strings.TrimSpace(fields.DateString) != "" {
		m.logger.Warn("unparseable service date, using current day", map[string]interface{}{
			"date": fields.DateString,
		})
	}

	var receipt *models.ServiceReceipt
	err := m.store.WithinTx(ctx, func(tx repository.Store) error {
		client, err := tx.FindClientByName(ctx, name)
		if err != nil {
			return err
		}
		if client == nil {
			client, err = tx.CreateClient(ctx, name, strings.TrimSpace(fields.ClientPhone))
			if err != nil {
				return err
			}
			m.logger.Info("created client", map[string]interface{}{
				"client_id": client.ID,
			})
		}

		car, err := tx.FindCar(ctx, client.ID, brand, carModel)
		if err != nil {
			return err
		}
		if car == nil {
			car, err = tx.CreateCar(ctx, models.Car{
				ClientID: client.ID,
				Brand:    brand,
				Model:    carModel,
				Color:    strings.TrimSpace(fields.CarColor),
				Year:     fields.CarYear,
			})
			if err != nil {
				return err
			}
			m.logger.Info("created car", map[string]interface{}{
				"client_id": client.ID,
				"car_id":    car.ID,
			})
		}

		record, err := tx.CreateServiceRecord(ctx, models.ServiceRecord{
			CarID:        car.ID,
			Description:  description,
			Date:         date,
			Cost:         fields.Cost,
			Observations: strings.TrimSpace(fields.Observations),
			Status:       models.StatusActive,
		})
		if err != nil {
			return err
		}

		receipt = &models.ServiceReceipt{Client: *client, Car: *car, Record: *record}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("recorded service", map[string]interface{}{
		"record_id": receipt.Record.ID,
		"car_id":    receipt.Car.ID,
	})
	return receipt, nil
}

// Search returns recorded services matching whichever fields were extracted.
// Client name matches the whole name case-insensitively; brand, model and
// description match substrings.
func (m *Manager) Search(ctx context.Context, fields models.ServiceFields) ([]models.ServiceDetail, error) {
	filter := repository.ServiceFilter{
		ClientName:  strings.TrimSpace(fields.ClientName),
		CarBrand:    strings.TrimSpace(fields.CarBrand),
		CarModel:    strings.TrimSpace(fields.CarModel),
		Description: strings.TrimSpace(fields.ServiceDescription),
	}

	if raw := strings.TrimSpace(fields.DateString); raw != "" {
		parsed, err := time.Parse(serviceDateLayout, raw)
		if err != nil {
			m.logger.Warn("ignoring unparseable search date", map[string]interface{}{
				"date": raw,
			})
		} else {
			filter.Date = &parsed
		}
	}

	if status := strings.TrimSpace(strings.ToLower(fields.Status)); status != "" {
		switch models.ServiceStatus(status) {
		case models.StatusActive, models.StatusClosed:
			filter.Status = models.ServiceStatus(status)
		default:
			m.logger.Warn("ignoring unknown status filter", map[string]interface{}{
				"status": fields.Status,
			})
		}
	}

	return m.store.QueryServiceRecords(ctx, filter)
}

// ListActive returns every service still marked active, newest first.
func (m *Manager) ListActive(ctx context.Context) ([]models.ServiceDetail, error) {
	return m.store.QueryServiceRecords(ctx, repository.ServiceFilter{Status: models.StatusActive})
}
