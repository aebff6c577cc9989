package backend

import (
	"fmt"
	"time"

	"spendview/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Type     BackendType
	Location *time.Location

	// xlsx, and the seed file of the memory backend
	OperationsFile  string
	OperationsSheet string

	// sqlite
	SQLiteDBPath string

	// sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	loc, err := appConfig.Location()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Type:     backendType,
		Location: loc,

		OperationsFile:  appConfig.OperationsFile,
		OperationsSheet: appConfig.OperationsSheet,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case XLSXBackend:
		if c.OperationsFile == "" {
			return fmt.Errorf("operations file is required for xlsx backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
		if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
			return fmt.Errorf("service account credentials are required for sheets backend")
		}
	case MemoryBackend:
		// The seed file is optional.
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{XLSXBackend, SheetsBackend, SQLiteBackend, MemoryBackend}
}
