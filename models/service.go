package models

import "time"

// Service is one bookable catalog entry.
type Service struct {
	ID              string    `bson:"id" json:"id"`                             // Unique service identifier (UUID)
	Name            string    `bson:"name" json:"name"`                         // Display name
	DurationMinutes int       `bson:"duration_minutes" json:"duration_minutes"` // Base duration in minutes, >= 1
	PriceMinor      int64     `bson:"price_minor" json:"price_minor"`           // Price in integer minor units, >= 0
	Currency        string    `bson:"currency" json:"currency"`                 // ISO 4217 code
	Skills          []string  `bson:"skills" json:"skills"`                     // Skills required to perform the service
	Visible         bool      `bson:"visible" json:"visible"`                   // Hidden services are not offered to clients
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}
