package repository

import (
	"context"

	"garage-assistant/internal/common/errors"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS clients_name_ci_idx ON clients ((LOWER(name)))`,
	`CREATE TABLE IF NOT EXISTS cars (
		id BIGSERIAL PRIMARY KEY,
		client_id BIGINT NOT NULL REFERENCES clients (id),
		brand TEXT,
		model TEXT NOT NULL,
		color TEXT,
		year INT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS cars_identity_ci_idx
		ON cars (client_id, (LOWER(COALESCE(brand, ''))), (LOWER(model)))`,
	`CREATE TABLE IF NOT EXISTS service_records (
		id BIGSERIAL PRIMARY KEY,
		car_id BIGINT NOT NULL REFERENCES cars (id),
		description TEXT NOT NULL,
		date TIMESTAMPTZ NOT NULL,
		cost NUMERIC(12, 2),
		observations TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS service_records_status_idx ON service_records (status)`,
	`CREATE INDEX IF NOT EXISTS service_records_car_idx ON service_records (car_id)`,
}

// EnsureSchema creates the tables and indexes the store depends on. The
// unique expression indexes back the ON CONFLICT find-or-create paths.
func (r *Postgres) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.q.ExecContext(ctx, stmt); err != nil {
			return errors.NewPersistenceError("ensureSchema", err)
		}
	}
	r.logger.Info("database schema ensured", map[string]interface{}{
		"tables": 3,
	})
	return nil
}
