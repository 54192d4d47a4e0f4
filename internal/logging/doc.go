// Package logging provides structured logging for codewiki runs.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// context propagation. A documentation run can touch hundreds of modules;
// every log line carries the run, phase, and module path so a failed module
// can be found after the fact.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("docs/.codewiki", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("clustering complete", "modules", 7)
//
// # Context Propagation
//
//	runLogger := logger.WithRun(runID).WithPhase("generation")
//	runLogger.WithModule([]string{"core", "parser"}).Warn("missing <OVERVIEW> tag, using raw response")
//
// Output:
//
//	{"time":"...","level":"WARN","msg":"missing <OVERVIEW> tag, using raw response","run_id":"...","phase":"generation","module":"core/parser"}
//
// # Log Rotation
//
//	logger, err := logging.NewLoggerWithRotation("docs/.codewiki", "INFO", logging.RotationConfig{
//	    MaxSizeMB:  10,
//	    MaxBackups: 3,
//	})
//
// Rotated files are named debug.log.1, debug.log.2, etc., where .1 is the
// most recent backup. ReadLogs reads the backups together with the current
// file.
//
// # Log Aggregation and Filtering
//
//	entries, err := logging.AggregateLogs("docs/.codewiki")
//	failed := logging.FilterLogs(entries, logging.LogFilter{Level: "WARN", Module: "core"})
//	err = logging.ExportLogEntries(os.Stdout, failed, "csv")
//
// # Configuration
//
//	logging:
//	  enabled: true
//	  level: info
//	  max_size_mb: 10
//	  max_backups: 3
package logging
