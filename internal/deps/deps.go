package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names an external binary and the config value that points at it.
type Requirement struct {
	Name    string
	Command string
	Purpose string
}

// Status is a Requirement after lookup. Path and Version are set only when
// the binary resolved and ran.
type Status struct {
	Requirement
	Available bool
	Path      string
	Version   string
	Detail    string
}

// Missing reports whether the binary could not be used.
func (s Status) Missing() bool { return !s.Available }

// CheckBinaries resolves every requirement on PATH (or as given when the
// command contains a slash).
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		results[i] = lookup(req)
	}
	return results
}

func lookup(req Requirement) Status {
	status := Status{Requirement: req}
	if req.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	resolved, err := exec.LookPath(req.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", req.Command)
		return status
	}
	status.Available = true
	status.Path = resolved
	return status
}
