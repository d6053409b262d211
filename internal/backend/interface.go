// Package backend builds the storage, notification and ledger collaborators
// from configuration.
package backend

import (
	"time"

	"billreminder/internal/notify"
	"billreminder/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// StorageResult is a ready repository plus the function that releases it.
type StorageResult struct {
	Repository storage.Repository
	Cleanup    CleanupFunc
}

// SinkResult is the transport for created-bill notifications.
type SinkResult struct {
	Sink    notify.Sink
	Kind    SinkKind
	Cleanup CleanupFunc
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string
	CacheSize    int
	CacheTTL     time.Duration

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	SMTP notify.SMTPConfig

	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// SinkKind names where notifications go.
type SinkKind string

const (
	SinkAMQP SinkKind = "amqp"
	SinkSMTP SinkKind = "smtp"
	SinkLog  SinkKind = "log"
)
