package models

import (
	"time"

	"github.com/google/uuid"
)

// Location is an append-only location report from an employee
type Location struct {
	ID         int64      `json:"id" db:"id"`
	EmployeeID uuid.UUID  `json:"employee_id" db:"employee_id"`
	Latitude   float64    `json:"latitude" db:"latitude"`
	Longitude  float64    `json:"longitude" db:"longitude"`
	Address    NullString `json:"address" db:"address"`
	RecordedAt time.Time  `json:"recorded_at" db:"recorded_at"`
}

// EmployeeLocation is the latest known position of an employee within the
// lookback window, joined with the employee's name
type EmployeeLocation struct {
	EmployeeID uuid.UUID  `json:"employee_id" db:"employee_id"`
	Name       string     `json:"name" db:"name"`
	Latitude   float64    `json:"latitude" db:"latitude"`
	Longitude  float64    `json:"longitude" db:"longitude"`
	Address    NullString `json:"address" db:"address"`
	RecordedAt time.Time  `json:"recorded_at" db:"recorded_at"`
}
