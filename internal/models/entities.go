package models

import "time"

// ServiceStatus tracks whether a service record is still being worked on.
type ServiceStatus string

const (
	StatusActive ServiceStatus = "active"
	StatusClosed ServiceStatus = "closed"
)

// Client is a garage customer. Identity is by case-insensitive exact name;
// a client row is created lazily the first time a record references it.
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Car is owned by exactly one Client, keyed by (client_id, brand, model).
// Brand may be empty when neither stated nor inferable from the model.
type Car struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"client_id"`
	Brand     string    `json:"brand,omitempty"`
	Model     string    `json:"model"`
	Color     string    `json:"color,omitempty"`
	Year      int       `json:"year,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ServiceRecord is owned by exactly one Car and immutable once created by
// this pipeline.
type ServiceRecord struct {
	ID           int64         `json:"id"`
	CarID        int64         `json:"car_id"`
	Description  string        `json:"description"`
	Date         time.Time     `json:"date"`
	Cost         *float64      `json:"cost,omitempty"`
	Observations string        `json:"observations,omitempty"`
	Status       ServiceStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
}

// ServiceDetail is a service record joined with its car and owner, as
// returned by search/list queries and consumed by the formatter. Client and
// Car are nil when the join could not resolve them.
type ServiceDetail struct {
	Record ServiceRecord `json:"record"`
	Car    *Car          `json:"car,omitempty"`
	Client *Client       `json:"client,omitempty"`
}

// ServiceReceipt is the result of a successful record operation: the created
// record and the entities it was resolved against.
type ServiceReceipt struct {
	Client Client        `json:"client"`
	Car    Car           `json:"car"`
	Record ServiceRecord `json:"record"`
}
