// Package preflight provides readiness checks for the filesystem paths,
// models, and services gymcut depends on.
//
// These checks run in two contexts:
//   - `gymcut edit` calls RunAll before starting; any failure aborts the run
//     so a long composite does not die at the final mux step.
//   - `gymcut doctor` renders every result as a table.
//
// Checks tied to a feature (OpenAI reachability, the ONNX model file) only run
// when that feature is selected in the config.
package preflight
