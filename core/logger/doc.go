// Package logger provides a structured logging facility based on Zap.
//
// The reconciler is a CLI tool, so the default encoding is console; json
// encoding is available for scheduled runs whose output is collected by a
// log shipper.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: console (human-readable) or json
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info", Format: "console"})
//	log.Info("comparison finished", zap.String("entity", "manifests"))
package logger
