package store

import (
	"database/sql"
	"fmt"

	"github.com/wireheat/afterhours/internal/models"
)

// scanServiceRequest scans a ServiceRequest from sql.Rows.
func scanServiceRequest(rows *sql.Rows) (models.ServiceRequest, error) {
	var req models.ServiceRequest
	err := rows.Scan(
		&req.ID, &req.CustomerName, &req.ServiceAddress, &req.UnitInfo, &req.Ownership,
		&req.CallbackPrimary, &req.CallbackAlternate, &req.IssueType, &req.IsEmergency,
		&req.IssueDescription, &req.CreatedAt, &req.Status,
	)
	if err != nil {
		return req, fmt.Errorf("scan service request failed: %w", err)
	}
	return req, nil
}

// scanServiceRequestRow scans a ServiceRequest from a single sql.Row.
func scanServiceRequestRow(row *sql.Row) (models.ServiceRequest, error) {
	var req models.ServiceRequest
	err := row.Scan(
		&req.ID, &req.CustomerName, &req.ServiceAddress, &req.UnitInfo, &req.Ownership,
		&req.CallbackPrimary, &req.CallbackAlternate, &req.IssueType, &req.IsEmergency,
		&req.IssueDescription, &req.CreatedAt, &req.Status,
	)
	return req, err
}
