// Package repository implements the persistence boundary for clients, cars
// and service records on PostgreSQL.
package repository

import (
	"context"
	"time"

	"garage-assistant/internal/models"
)

// ServiceFilter narrows a service record query. Zero values mean "no filter
// on this attribute".
type ServiceFilter struct {
	ClientName  string // exact, case-insensitive
	CarBrand    string // substring, case-insensitive
	CarModel    string // substring, case-insensitive
	Description string // substring, case-insensitive
	Date        *time.Time
	Status      models.ServiceStatus

	recordID int64 // internal, set by GetServiceRecord
}

// Store is the persistence boundary consumed by service management. The
// Create* operations are atomic reuse-or-create primitives: under concurrent
// callers the first write wins and the second resolves to the just-created
// row.
type Store interface {
	FindClientByName(ctx context.Context, name string) (*models.Client, error)
	CreateClient(ctx context.Context, name, phone string) (*models.Client, error)
	FindCar(ctx context.Context, clientID int64, brand, model string) (*models.Car, error)
	CreateCar(ctx context.Context, car models.Car) (*models.Car, error)
	CreateServiceRecord(ctx context.Context, record models.ServiceRecord) (*models.ServiceRecord, error)
	QueryServiceRecords(ctx context.Context, filter ServiceFilter) ([]models.ServiceDetail, error)
	GetServiceRecord(ctx context.Context, id int64) (*models.ServiceDetail, error)
	ListClients(ctx context.Context) ([]models.Client, error)
	ListCarsByClient(ctx context.Context, clientID int64) ([]models.Car, error)

	// WithinTx runs fn against a transaction-scoped Store. Everything fn
	// persists becomes visible to other callers only on commit.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
