package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"garage-assistant/internal/common/errors"
	"garage-assistant/internal/common/logger"
	"garage-assistant/internal/models"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Postgres implements Store on a PostgreSQL connection. Find-or-create
// atomicity rests on the unique indexes created by EnsureSchema.
type Postgres struct {
	db     *sql.DB
	q      querier
	logger logger.Logger
}

func NewPostgres(db *sql.DB, log logger.Logger) *Postgres {
	return &Postgres{
		db:     db,
		q:      db,
		logger: log.WithFields(map[string]interface{}{"component": "repository"}),
	}
}

const (
	queryFindClientByName = `
		SELECT id, name, COALESCE(phone, ''), created_at
		FROM clients
		WHERE LOWER(name) = LOWER($1)`

	queryCreateClient = `
		INSERT INTO clients (name, phone)
		VALUES ($1, NULLIF($2, ''))
		ON CONFLICT ((LOWER(name))) DO UPDATE SET name = clients.name
		RETURNING id, name, COALESCE(phone, ''), created_at`

	queryFindCar = `
		SELECT id, client_id, COALESCE(brand, ''), model, COALESCE(color, ''), COALESCE(year, 0), created_at
		FROM cars
		WHERE client_id = $1
		  AND LOWER(COALESCE(brand, '')) = LOWER($2)
		  AND LOWER(model) = LOWER($3)`

	queryCreateCar = `
		INSERT INTO cars (client_id, brand, model, color, year)
		VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), NULLIF($5, 0))
		ON CONFLICT (client_id, (LOWER(COALESCE(brand, ''))), (LOWER(model))) DO UPDATE SET model = cars.model
		RETURNING id, client_id, COALESCE(brand, ''), model, COALESCE(color, ''), COALESCE(year, 0), created_at`

	queryCreateServiceRecord = `
		INSERT INTO service_records (car_id, description, date, cost, observations, status)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		RETURNING id, car_id, description, date, cost, COALESCE(observations, ''), status, created_at`

	queryServiceRecordsBase = `
		SELECT sr.id, sr.car_id, sr.description, sr.date, sr.cost, COALESCE(sr.observations, ''), sr.status, sr.created_at,
		       c.id, c.client_id, COALESCE(c.brand, ''), c.model, COALESCE(c.color, ''), COALESCE(c.year, 0), c.created_at,
		       cl.id, cl.name, COALESCE(cl.phone, ''), cl.created_at
		FROM service_records sr
		LEFT JOIN cars c ON c.id = sr.car_id
		LEFT JOIN clients cl ON cl.id = c.client_id`
)

func (r *Postgres) FindClientByName(ctx context.Context, name string) (*models.Client, error) {
	var client models.Client
	err := r.q.QueryRowContext(ctx, queryFindClientByName, name).
		Scan(&client.ID, &client.Name, &client.Phone, &client.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewPersistenceError("findClientByName", err)
	}
	return &client, nil
}

func (r *Postgres) CreateClient(ctx context.Context, name, phone string) (*models.Client, error) {
	var client models.Client
	err := r.q.QueryRowContext(ctx, queryCreateClient, name, phone).
		Scan(&client.ID, &client.Name, &client.Phone, &client.CreatedAt)
	if err != nil {
		return nil, errors.NewPersistenceError("createClient", err)
	}
	return &client, nil
}

func (r *Postgres) FindCar(ctx context.Context, clientID int64, brand, model string) (*models.Car, error) {
	var car models.Car
	err := r.q.QueryRowContext(ctx, queryFindCar, clientID, brand, model).
		Scan(&car.ID, &car.ClientID, &car.Brand, &car.Model, &car.Color, &car.Year, &car.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewPersistenceError("findCar", err)
	}
	return &car, nil
}

func (r *Postgres) CreateCar(ctx context.Context, car models.Car) (*models.Car, error) {
	var created models.Car
	err := r.q.QueryRowContext(ctx, queryCreateCar, car.ClientID, car.Brand, car.Model, car.Color, car.Year).
		Scan(&created.ID, &created.ClientID, &created.Brand, &created.Model, &created.Color, &created.Year, &created.CreatedAt)
	if err != nil {
		return nil, errors.NewPersistenceError("createCar", err)
	}
	return &created, nil
}

func (r *Postgres) CreateServiceRecord(ctx context.Context, record models.ServiceRecord) (*models.ServiceRecord, error) {
	var (
		created models.ServiceRecord
		cost    sql.NullFloat64
	)
	err := r.q.QueryRowContext(ctx, queryCreateServiceRecord,
		record.CarID, record.Description, record.Date, record.Cost, record.Observations, record.Status).
		Scan(&created.ID, &created.CarID, &created.Description, &created.Date,
			&cost, &created.Observations, &created.Status, &created.CreatedAt)
	if err != nil {
		return nil, errors.NewPersistenceError("createServiceRecord", err)
	}
	if cost.Valid {
		created.Cost = &cost.Float64
	}
	return &created, nil
}

// QueryServiceRecords materializes the filtered record set joined with car
// and owner, newest service date first. Restart means re-invoking the query.
func (r *Postgres) QueryServiceRecords(ctx context.Context, filter ServiceFilter) ([]models.ServiceDetail, error) {
	query, args := buildServiceQuery(filter)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewPersistenceError("queryServiceRecords", err)
	}
	defer func() { _ = rows.Close() }()

	var details []models.ServiceDetail
	for rows.Next() {
		var (
			detail    models.ServiceDetail
			cost      sql.NullFloat64
			carID     sql.NullInt64
			carOwner  sql.NullInt64
			carBrand  sql.NullString
			carModel  sql.NullString
			carColor  sql.NullString
			carYear   sql.NullInt64
			carAt     sql.NullTime
			clID      sql.NullInt64
			clName    sql.NullString
			clPhone   sql.NullString
			clCreated sql.NullTime
		)
		err := rows.Scan(
			&detail.Record.ID, &detail.Record.CarID, &detail.Record.Description, &detail.Record.Date,
			&cost, &detail.Record.Observations, &detail.Record.Status, &detail.Record.CreatedAt,
			&carID, &carOwner, &carBrand, &carModel, &carColor, &carYear, &carAt,
			&clID, &clName, &clPhone, &clCreated,
		)
		if err != nil {
			return nil, errors.NewPersistenceError("queryServiceRecords", err)
		}
		if cost.Valid {
			detail.Record.Cost = &cost.Float64
		}
		if carID.Valid {
			detail.Car = &models.Car{
				ID:        carID.Int64,
				ClientID:  carOwner.Int64,
				Brand:     carBrand.String,
				Model:     carModel.String,
				Color:     carColor.String,
				Year:      int(carYear.Int64),
				CreatedAt: carAt.Time,
			}
		}
		if clID.Valid {
			detail.Client = &models.Client{
				ID:        clID.Int64,
				Name:      clName.String,
				Phone:     clPhone.String,
				CreatedAt: clCreated.Time,
			}
		}
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceError("queryServiceRecords", err)
	}

	return details, nil
}

func buildServiceQuery(filter ServiceFilter) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)

	addArg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.recordID != 0 {
		conditions = append(conditions, fmt.Sprintf("sr.id = %s", addArg(filter.recordID)))
	}
	if filter.ClientName != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(cl.name) = LOWER(%s)", addArg(filter.ClientName)))
	}
	if filter.CarBrand != "" {
		conditions = append(conditions, fmt.Sprintf("c.brand ILIKE %s", addArg("%"+filter.CarBrand+"%")))
	}
	if filter.CarModel != "" {
		conditions = append(conditions, fmt.Sprintf("c.model ILIKE %s", addArg("%"+filter.CarModel+"%")))
	}
	if filter.Description != "" {
		conditions = append(conditions, fmt.Sprintf("sr.description ILIKE %s", addArg("%"+filter.Description+"%")))
	}
	if filter.Date != nil {
		conditions = append(conditions, fmt.Sprintf("sr.date = %s", addArg(*filter.Date)))
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("sr.status = %s", addArg(string(filter.Status))))
	}

	query := queryServiceRecordsBase
	if len(conditions) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conditions, " AND ")
	}
	query += "\n\t\tORDER BY sr.date DESC, sr.created_at DESC"

	return query, args
}

// GetServiceRecord fetches one record with its car and owner, or nil when no
// record has that id.
func (r *Postgres) GetServiceRecord(ctx context.Context, id int64) (*models.ServiceDetail, error) {
	details, err := r.QueryServiceRecords(ctx, ServiceFilter{recordID: id})
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, nil
	}
	return &details[0], nil
}

const queryListClients = `
		SELECT id, name, COALESCE(phone, ''), created_at
		FROM clients
		ORDER BY LOWER(name)`

func (r *Postgres) ListClients(ctx context.Context) ([]models.Client, error) {
	rows, err := r.q.QueryContext(ctx, queryListClients)
	if err != nil {
		return nil, errors.NewPersistenceError("listClients", err)
	}
	defer func() { _ = rows.Close() }()

	var clients []models.Client
	for rows.Next() {
		var client models.Client
		if err := rows.Scan(&client.ID, &client.Name, &client.Phone, &client.CreatedAt); err != nil {
			return nil, errors.NewPersistenceError("listClients", err)
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceError("listClients", err)
	}
	return clients, nil
}

const queryListCarsByClient = `
		SELECT id, client_id, COALESCE(brand, ''), model, COALESCE(color, ''), COALESCE(year, 0), created_at
		FROM cars
		WHERE client_id = $1
		ORDER BY LOWER(model)`

func (r *Postgres) ListCarsByClient(ctx context.Context, clientID int64) ([]models.Car, error) {
	rows, err := r.q.QueryContext(ctx, queryListCarsByClient, clientID)
	if err != nil {
		return nil, errors.NewPersistenceError("listCarsByClient", err)
	}
	defer func() { _ = rows.Close() }()

	var cars []models.Car
	for rows.Next() {
		var car models.Car
		if err := rows.Scan(&car.ID, &car.ClientID, &car.Brand, &car.Model, &car.Color, &car.Year, &car.CreatedAt); err != nil {
			return nil, errors.NewPersistenceError("listCarsByClient", err)
		}
		cars = append(cars, car)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceError("listCarsByClient", err)
	}
	return cars, nil
}

// WithinTx runs fn against a transaction-scoped store. The record pipeline
// relies on this so client, car and record creation land in one logical unit
// of work.
func (r *Postgres) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewPersistenceError("beginTx", err)
	}

	txStore := &Postgres{db: r.db, q: sqlTx, logger: r.logger}
	if err := fn(txStore); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			r.logger.Error("transaction rollback failed", map[string]interface{}{
				"error": rbErr.Error(),
			})
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return errors.NewPersistenceError("commitTx", err)
	}
	return nil
}
