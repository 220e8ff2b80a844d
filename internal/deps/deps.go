package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external dependency voxpipe relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// Alternatives are tried in order when Command is not on PATH.
	Alternatives []string
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
		if cmd == "" && len(req.Alternatives) == 0 {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		candidates := append([]string{}, req.Alternatives...)
		if cmd != "" {
			candidates = append([]string{cmd}, candidates...)
		}
		for _, candidate := range candidates {
			if resolved, err := exec.LookPath(candidate); err == nil {
				status.Command = candidate
				status.Path = resolved
				status.Available = true
				break
			}
		}
		if !status.Available {
			if len(candidates) == 1 {
				status.Detail = fmt.Sprintf("binary %q not found", candidates[0])
			} else {
				status.Detail = fmt.Sprintf("none of %s found", strings.Join(candidates, ", "))
			}
			if status.Command == "" {
				status.Command = candidates[0]
			}
		}
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the names of required dependencies that are unavailable.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Optional && !status.Available {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
