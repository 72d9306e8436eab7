package models

import "time"

// ApiKey is an integration key for the HTTP API.
type ApiKey struct {
	ID        int64     `db:"id" json:"id"`
	Label     string    `db:"label" json:"label"`
	ApiKey    string    `db:"api_key" json:"api_key"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
