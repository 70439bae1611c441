package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teamsync/scheduler-backend/internal/models"
)

// LocationRepository handles the append-only employee location log
type LocationRepository struct {
	db DB
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(db DB) *LocationRepository {
	return &LocationRepository{
		db: db,
	}
}

// RecordLocation appends a location report for an employee. The timestamp is
// generated here, per call, never taken from the client.
func (r *LocationRepository) RecordLocation(employeeID uuid.UUID, latitude, longitude float64, address string) (*models.Location, error) {
	location := &models.Location{
		EmployeeID: employeeID,
		Latitude:   latitude,
		Longitude:  longitude,
		Address:    models.NewNullString(address),
		RecordedAt: time.Now(),
	}

	query := `
		INSERT INTO locations (employee_id, latitude, longitude, address, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRow(
		query,
		location.EmployeeID,
		location.Latitude,
		location.Longitude,
		location.Address,
		location.RecordedAt,
	).Scan(&location.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to record location: %w", err)
	}

	return location, nil
}

// LatestLocations returns the most recent location of each of the manager's
// employees, restricted to reports within the lookback window
func (r *LocationRepository) LatestLocations(managerID uuid.UUID, lookback time.Duration) ([]models.EmployeeLocation, error) {
	threshold := time.Now().Add(-lookback)

	locations := []models.EmployeeLocation{}

	query := `
		SELECT DISTINCT ON (l.employee_id)
		       l.employee_id, e.name, l.latitude, l.longitude, l.address, l.recorded_at
		FROM locations l
		JOIN employees e ON e.id = l.employee_id
		WHERE e.manager_id = $1
		  AND l.recorded_at >= $2
		ORDER BY l.employee_id, l.recorded_at DESC
	`

	if err := r.db.Select(&locations, query, managerID, threshold); err != nil {
		return nil, fmt.Errorf("failed to get latest locations: %w", err)
	}

	return locations, nil
}
