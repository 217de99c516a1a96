// Package logging assembles structured slog loggers and formatting helpers used
// across gymcut commands.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so stage code tags log lines with the run
// ID and stage name. Each command invocation can also write a JSON log file
// into the configured log directory; old files are pruned by CleanupOldLogs.
//
// Prefer these constructors over hand-rolled slog setup so every stage emits
// records with the same shape.
package logging
