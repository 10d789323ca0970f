// Package log provides structured protocol capture for the Hakuna bridge.
//
// This package defines the Logger interface and Event types for recording
// what the bridge did on the wire and why its state changed: every HTTP
// exchange with the Hakuna API, timer and health state transitions, and
// every snapshot the coordinator publishes. It is separate from operational
// logging (slog) - capture provides a complete machine-readable trace for
// debugging rate-limit and reconciliation issues after the fact.
//
// # Basic Usage
//
// Components accept a Logger in their configuration:
//
//	// For development: log to console via slog
//	opts.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to a capture file
//	opts.ProtocolLogger, _ = log.NewFileLogger("/var/log/hakuna/bridge.hlog")
//
//	// Both: use MultiLogger
//	opts.ProtocolLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at three layers:
//   - API: one ExchangeEvent per HTTP round trip
//   - Timer: StateChangeEvent for idle/running transitions
//   - Coordinator: SnapshotEvent per publication, StateChangeEvent for health
//
// Errors at any layer have a dedicated ErrorEventData payload. Events that
// belong to the same refresh cycle or action share a CycleID.
//
// # File Format
//
// Capture files use CBOR encoding with the .hlog extension. The hakuna-log
// CLI tool provides viewing, statistics and export.
package log
