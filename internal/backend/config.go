package backend

import (
	"errors"
	"fmt"
	"strings"

	"recount/internal/config"
)

// BackendType selects where the running total and events live.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

var backendTypes = []BackendType{SQLiteBackend, SheetsBackend, MemoryBackend}

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	for _, t := range backendTypes {
		if bt == t {
			return true
		}
	}
	return false
}

// ParseBackendType accepts a DATA_BACKEND value in any case.
func ParseBackendType(s string) (BackendType, error) {
	bt := BackendType(strings.ToLower(strings.TrimSpace(s)))
	if !bt.IsValid() {
		return "", fmt.Errorf("invalid backend type %q: must be one of %v", s, GetBackendTypeStrings())
	}
	return bt, nil
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	out := make([]string, len(backendTypes))
	for i, t := range backendTypes {
		out[i] = t.String()
	}
	return out
}

// Config is the subset of application settings a backend needs.
type Config struct {
	Type BackendType

	// sqlite: local counter row, optionally announced over AMQP
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// sheets: counter cell and events tab in one spreadsheet
	GoogleSpreadsheetID      string
	GoogleCounterSheet       string
	GoogleEventsSheet        string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// memory: seed files
	DataDirectory string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType, err := ParseBackendType(appConfig.DataBackend)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleCounterSheet:       appConfig.GoogleCounterSheet,
		GoogleEventsSheet:        appConfig.GoogleEventsSheet,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,

		DataDirectory: appConfig.DataDir,
	}, nil
}

// Validate checks the settings the selected backend type depends on.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type %q: must be one of %v", c.Type, GetBackendTypeStrings())
	}

	var problems []string
	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			problems = append(problems, "SQLite database path is required")
		}
		if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
			problems = append(problems, "AMQP exchange and queue are required when an AMQP URL is set")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			problems = append(problems, "Google Spreadsheet ID is required")
		}
		if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
			problems = append(problems, "a service account file or JSON is required")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s backend: %s", c.Type, strings.Join(problems, "; "))
	}
	return nil
}
