/*
Package log provides structured logging for PIVOT using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions for
common logging patterns. All logs include timestamps and support filtering by
severity level for production debugging.

# Architecture

PIVOT's logging system provides structured JSON logging with minimal overhead:

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("scheduler")               │          │
	│  │  - WithApplianceID("app-abc123")            │          │
	│  │  - WithContainerID("container-xyz")         │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │                                              │          │
	│  │  JSON Format:                               │          │
	│  │  {                                           │          │
	│  │    "level": "info",                         │          │
	│  │    "component": "scheduler",                │          │
	│  │    "time": "2026-07-30T10:30:00Z",         │          │
	│  │    "message": "container scheduled"          │          │
	│  │  }                                           │          │
	│  │                                              │          │
	│  │  Console Format:                            │          │
	│  │  2026-07-30T10:30:00Z INF container scheduled component=scheduler │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all PIVOT packages
  - Thread-safe concurrent writes

Log Levels:
  - Debug: Detailed debugging information
  - Info: General informational messages
  - Warn: Warning messages (potential issues)
  - Error: Error messages (operation failed)
  - Fatal: Critical errors (process exits)

Configuration:
  - Level: Filter messages below threshold
  - JSONOutput: JSON vs human-readable console
  - Output: io.Writer for log destination (stdout, file)

Context Loggers:
  - WithComponent: Add component name to all logs
  - WithApplianceID: Add appliance ID context
  - WithContainerID: Add container ID context

# Log Levels

Debug Level:
  - Purpose: Detailed debugging information
  - Usage: Development and troubleshooting
  - Performance: Verbose, may impact production
  - Example: "Polling cluster snapshot: 12 agents, 340 tasks"

Info Level:
  - Purpose: General informational messages
  - Usage: Default production level
  - Performance: Moderate volume
  - Example: "Appliance created: web (nginx:latest)"

Warn Level:
  - Purpose: Potential issues or unexpected conditions
  - Usage: Situations that may require attention
  - Performance: Low volume
  - Example: "Cluster snapshot stale (2 consecutive poll failures)"

Error Level:
  - Purpose: Operation failures that need investigation
  - Usage: Failed operations, exceptions
  - Performance: Low volume
  - Example: "Failed to submit container: backend returned 503"

Fatal Level:
  - Purpose: Critical errors causing process termination
  - Usage: Unrecoverable errors only
  - Behavior: Logs message and exits process (os.Exit(1))
  - Example: "Failed to open data directory: %v"

# Usage

Initializing the Logger:

	import "github.com/cuemby/pivot/pkg/log"

	// JSON output (production)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	// Console output (development)
	log.Init(log.Config{
		Level:      log.DebugLevel,
		JSONOutput: false,
		Output:     os.Stdout,
	})

	// Custom output (file)
	file, _ := os.OpenFile("/var/log/pivotd.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     file,
	})

Simple Logging:

	log.Info("Scheduler loop started")
	log.Debug("Checking appliance status")
	log.Warn("Cluster snapshot stale")
	log.Error("Failed to reach service backend")
	log.Fatal("Cannot start without a data directory") // Exits process

Structured Logging:

	log.Logger.Info().
		Str("appliance_id", "app-123").
		Int("instances", 3).
		Msg("Appliance created")

	log.Logger.Error().
		Err(err).
		Str("container_id", "container-abc").
		Msg("Container reconciliation failed")

Component Loggers:

	// Create component-specific logger
	schedulerLog := log.WithComponent("scheduler")
	schedulerLog.Info().Msg("Starting scheduler loop")
	schedulerLog.Debug().Str("container_id", "container-123").Msg("Scheduling container")

	// Multiple context fields
	reconcileLog := log.WithComponent("reconciler").
		With().Str("appliance_id", "app-abc").
		Str("container_id", "container-123").Logger()
	reconcileLog.Info().Msg("Reconciling desired state")
	reconcileLog.Error().Err(err).Msg("Reconciliation failed")

Context Logger Helpers:

	// Appliance-specific logs
	applianceLog := log.WithApplianceID("app-abc123")
	applianceLog.Info().Msg("Appliance loop registered")

	// Container-specific logs
	containerLog := log.WithContainerID("container-def456")
	containerLog.Info().Msg("Container submitted to backend")

Complete Example:

	package main

	import (
		"errors"
		"os"
		"github.com/cuemby/pivot/pkg/log"
	)

	func main() {
		// Initialize logger
		log.Init(log.Config{
			Level:      log.InfoLevel,
			JSONOutput: true,
			Output:     os.Stdout,
		})

		log.Info("pivotd starting")

		// Component-specific logging
		schedulerLog := log.WithComponent("scheduler")
		schedulerLog.Info().
			Str("appliance_id", "app-1").
			Int("container_count", 5).
			Msg("Scheduling containers")

		// Error logging
		err := errors.New("connection refused")
		log.Logger.Error().
			Err(err).
			Str("component", "backend").
			Msg("Failed to reach orchestrator")

		log.Info("pivotd stopped")
	}

# Integration Points

This package integrates with:

  - pkg/manager: Logs container submission and status decisions
  - pkg/scheduler: Logs appliance loop scheduling decisions
  - pkg/reconciler: Logs state reconciliation
  - pkg/backend: Logs orchestrator API requests and errors
  - pkg/api: Logs HTTP requests and errors

# Log Output Examples

JSON Format (Production):

	{"level":"info","component":"manager","time":"2026-07-30T10:30:00Z","message":"Appliance created"}
	{"level":"info","component":"scheduler","container_id":"container-123","time":"2026-07-30T10:30:01Z","message":"Container scheduled"}
	{"level":"error","component":"backend","appliance_id":"app-abc","time":"2026-07-30T10:30:02Z","message":"Failed to submit container"}

Console Format (Development):

	2026-07-30T10:30:00Z INF Appliance created component=manager
	2026-07-30T10:30:01Z INF Container scheduled component=scheduler container_id=container-123
	2026-07-30T10:30:02Z ERR Failed to submit container component=backend appliance_id=app-abc

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance
  - Initialized once at application start
  - Accessible from all packages without passing
  - Simplifies logging in deeply nested calls

Context Logger Pattern:
  - Create child loggers with context fields
  - Pass context loggers to functions
  - Automatically includes context in all logs
  - Avoids repetitive field specification

Structured Logging Pattern:
  - Use typed fields (.Str, .Int, .Err)
  - Enables log aggregation and querying
  - Better than string concatenation
  - Parseable by log analysis tools

Error Logging Pattern:
  - Always use .Err(err) for error objects
  - Records the error message in the "error" field (no stack trace)
  - Enables error tracking and alerting
  - Consistent error format across codebase

# Security

Log Content:
  - Never log secrets or sensitive data
  - Redact tokens, passwords, API keys
  - Use log scrubbing for compliance (GDPR, PCI)
  - Review logs before sharing externally

Log Injection:
  - Use structured logging (prevents injection)
  - Never concatenate user input into log messages
  - Use typed fields (.Str, .Int) for user data

# Best Practices

Do:
  - Use Info level for production
  - Use structured fields for queryable data
  - Create component-specific loggers
  - Log errors with .Err() so the error is a structured field
  - Include context (appliance ID, container ID)

Don't:
  - Log sensitive data (secrets, passwords)
  - Use Debug level in production
  - Log in tight loops (use sampling)
  - Concatenate strings (use .Str, .Int)

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
*/
package log
