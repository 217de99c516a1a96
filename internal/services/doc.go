// Package services defines shared utilities consumed by the gymcut stages.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (bad input, bad configuration, missing tools) for the CLI.
//
// Stage code should wrap failures with these markers so the command layer can
// attach a useful next step to the error it prints.
package services
