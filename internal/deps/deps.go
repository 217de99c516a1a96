package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Requirement defines an external dependency gymcut relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Path        string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Path = resolved
		status.Available = true
		results = append(results, status)
	}
	return results
}

// CheckLibrary reports whether a shared library is reachable. A bare file name
// (no directory) is left to the dynamic loader and reported as available with
// a note; explicit paths must exist and be regular files.
func CheckLibrary(name, path, description string, optional bool) Status {
	status := Status{
		Name:        name,
		Command:     strings.TrimSpace(path),
		Description: description,
		Optional:    optional,
	}
	switch {
	case status.Command == "":
		status.Detail = "library path not configured"
	case !strings.ContainsRune(status.Command, filepath.Separator):
		status.Available = true
		status.Detail = "resolved by the dynamic loader at runtime"
	default:
		info, err := os.Stat(status.Command)
		switch {
		case err != nil:
			status.Detail = fmt.Sprintf("library %q not found", status.Command)
		case info.IsDir():
			status.Detail = fmt.Sprintf("%q is a directory", status.Command)
		default:
			status.Path = status.Command
			status.Available = true
		}
	}
	return status
}
