package backend

import (
	"fmt"

	"billreminder/internal/config"
	"billreminder/internal/notify"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		CacheSize:    appConfig.CacheSize,
		CacheTTL:     appConfig.CacheTTL,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		SMTP: notify.SMTPConfig{
			Host:     appConfig.SMTPHost,
			Port:     appConfig.SMTPPort,
			Username: appConfig.SMTPUsername,
			Password: appConfig.SMTPPassword,
			From:     appConfig.SMTPFrom,
			TLS:      appConfig.SMTPTLS,
			Timeout:  appConfig.NotifyTimeout,
		},

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return fmt.Errorf("AMQP exchange and queue are required when AMQP URL is set")
	}
	return nil
}

// SinkKind reports which transport CreateSink will build.
func (c Config) SinkKind() SinkKind {
	switch {
	case c.AMQPURL != "":
		return SinkAMQP
	case c.SMTP.Host != "":
		return SinkSMTP
	default:
		return SinkLog
	}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	return []string{SQLiteBackend.String(), MemoryBackend.String()}
}
