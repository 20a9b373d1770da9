// Package logging provides structured logging for the bucket index engine,
// backed by logrus.
//
// # Overview
//
// The logging package provides a structured logging interface with support for:
//
//   - Multiple log levels (debug, info, warn, error)
//   - Text and JSON output formats
//   - Request ID tracking for correlating a batch of operations
//   - Field-based contextual logging
//
// # Creating a Logger
//
// Create a logger with configuration:
//
//	logger := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "/var/log/bucketidx/bucketidx.log",
//	})
//
// Or use defaults:
//
//	logger := logging.NewDefault() // Info level, text format, stdout
//
// For testing, use a no-op logger:
//
//	logger := logging.NewNop()
//
// # Log Levels
//
// Four log levels are supported:
//
//	logger.Debug("detailed debugging info", "key", "value")
//	logger.Info("informational message", "key", "value")
//	logger.Warn("warning message", "key", "value")
//	logger.Error("error message", "key", "value")
//
// Parse level from string:
//
//	level := logging.ParseLevel("debug") // Returns LevelDebug
//
// # Structured Logging
//
// Add key-value pairs to log entries:
//
//	logger.Info("bulk build committed",
//	    "index", "idx_a",
//	    "keys", 120000,
//	    "duration_ms", 842,
//	)
//
// Output (JSON format):
//
//	{
//	    "time": "2026-02-18T10:30:00Z",
//	    "level": "info",
//	    "msg": "bulk build committed",
//	    "index": "idx_a",
//	    "keys": 120000,
//	    "duration_ms": 842
//	}
//
// # Request ID Tracking
//
// Add a request ID for tracing a single journaled operation:
//
//	requestID := logging.GenerateRequestID()
//	opLogger := logger.WithRequestID(requestID)
//
//	opLogger.Info("insert committed") // Includes request_id field
//
// # Contextual Fields
//
// Create loggers with persistent fields:
//
//	idxLogger := logger.WithFields("index", name, "order", order.NumFields())
//
//	// All subsequent logs include these fields
//	idxLogger.Info("insert rejected", "reason", "duplicate key")
//
// # Output Destinations
//
// Configure output destination:
//
//	logging.Config{Output: "stdout"}                  // Standard output
//	logging.Config{Output: "stderr"}                  // Standard error
//	logging.Config{Output: "/var/log/bucketidx.log"}   // File path
package logging
