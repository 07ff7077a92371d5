package init

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// DataSummary contains information about existing data in the database
type DataSummary struct {
	PrincipalCount    int64    `json:"principal_count"`
	RequestCount      int64    `json:"request_count"`
	ItemCount         int64    `json:"item_count"`
	RefreshTokenCount int64    `json:"refresh_token_count"`
	IsEmpty           bool     `json:"is_empty"`
	NonEmptyTables    []string `json:"non_empty_tables"`
}

// SafetyChecker provides functionality to check if the database is safe for initialization
type SafetyChecker struct {
	db *gorm.DB
}

// NewSafetyChecker creates a new SafetyChecker instance
func NewSafetyChecker(db *gorm.DB) *SafetyChecker {
	return &SafetyChecker{
		db: db,
	}
}

// IsDatabaseEmpty checks if the database contains any existing data in critical tables
// Returns true if the database is empty and safe for initialization
func (sc *SafetyChecker) IsDatabaseEmpty() (bool, error) {
	summary, err := sc.GetDataSummary()
	if err != nil {
		return false, fmt.Errorf("failed to get data summary: %w", err)
	}

	return summary.IsEmpty, nil
}

// GetDataSummary returns detailed information about existing data in the database
func (sc *SafetyChecker) GetDataSummary() (*DataSummary, error) {
	summary := &DataSummary{
		NonEmptyTables: make([]string, 0),
	}

	// Define tables to check with their corresponding count fields
	tablesToCheck := []struct {
		name     string
		countPtr *int64
		label    string
	}{
		{"principals", &summary.PrincipalCount, "principals"},
		{"requests", &summary.RequestCount, "requests"},
		{"items", &summary.ItemCount, "items"},
		{"refresh_tokens", &summary.RefreshTokenCount, "refresh_tokens"},
	}

	// Check each table with enhanced error handling
	for _, table := range tablesToCheck {
		count, err := sc.countTableRecords(table.name)
		if err != nil {
			return nil, fmt.Errorf("failed to check table %s: %w", table.name, err)
		}

		*table.countPtr = count
		if count > 0 {
			summary.NonEmptyTables = append(summary.NonEmptyTables, table.label)
		}
	}

	// Database is empty if all critical tables are empty
	summary.IsEmpty = len(summary.NonEmptyTables) == 0

	return summary, nil
}

// GetNonEmptyTablesReport returns a formatted report of non-empty tables
func (sc *SafetyChecker) GetNonEmptyTablesReport() (string, error) {
	summary, err := sc.GetDataSummary()
	if err != nil {
		return "", fmt.Errorf("failed to get data summary: %w", err)
	}

	if summary.IsEmpty {
		return "Database is empty and safe for initialization", nil
	}

	report := "Database contains existing data in the following tables:\n"

	if summary.PrincipalCount > 0 {
		report += fmt.Sprintf("  - principals: %d records\n", summary.PrincipalCount)
	}
	if summary.RequestCount > 0 {
		report += fmt.Sprintf("  - requests: %d records\n", summary.RequestCount)
	}
	if summary.ItemCount > 0 {
		report += fmt.Sprintf("  - items: %d records\n", summary.ItemCount)
	}
	if summary.RefreshTokenCount > 0 {
		report += fmt.Sprintf("  - refresh_tokens: %d records\n", summary.RefreshTokenCount)
	}

	report += "\nInitialization cannot proceed on a non-empty database to prevent data corruption."

	return report, nil
}

// ValidateEmptyDatabase performs the safety check and returns an error if the database is not empty
func (sc *SafetyChecker) ValidateEmptyDatabase() error {
	isEmpty, err := sc.IsDatabaseEmpty()
	if err != nil {
		return fmt.Errorf("failed to check database emptiness: %w", err)
	}

	if !isEmpty {
		report, reportErr := sc.GetNonEmptyTablesReport()
		if reportErr != nil {
			return fmt.Errorf("database is not empty and failed to generate report: %w", reportErr)
		}
		return fmt.Errorf("database safety check failed:\n%s", report)
	}

	return nil
}

// countTableRecords safely counts records in a table, handling missing tables gracefully
// Returns zero count for missing tables and propagates other database errors
func (sc *SafetyChecker) countTableRecords(tableName string) (int64, error) {
	var count int64
	err := sc.db.Table(tableName).Count(&count).Error

	if err != nil {
		if isTableNotFoundError(err) {
			// Table doesn't exist - treat as empty (0 records)
			return 0, nil
		}
		// Other database errors should be propagated
		return 0, err
	}

	return count, nil
}

// isTableNotFoundError checks if the given error indicates that a table was not found
// It handles PostgreSQL SQLSTATE 42P01 ("undefined_table") errors and provides
// fallback string matching for generic "table does not exist" messages
func isTableNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	// Check for PostgreSQL "undefined_table" error (SQLSTATE 42P01)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P01"
	}

	// Fallback: check error message for common patterns
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "does not exist") ||
		strings.Contains(errMsg, "no such table") ||
		strings.Contains(errMsg, "undefined_table")
}
