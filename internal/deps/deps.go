package deps

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Requirement defines an external binary cleancut relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// VersionArgs, when set, are passed to the binary to read its version banner.
	VersionArgs []string
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Version     string
	Detail      string
}

const versionProbeTimeout = 5 * time.Second

// CheckBinaries resolves every requirement concurrently. Results keep the
// order of requirements.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	var g errgroup.Group
	for i, req := range requirements {
		g.Go(func() error {
			results[i] = check(ctx, req)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func check(ctx context.Context, req Requirement) Status {
	status := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	resolved, err := exec.LookPath(status.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}
	status.Available = true
	if len(req.VersionArgs) == 0 {
		return status
	}
	if status.Version, err = probeVersion(ctx, resolved, req.VersionArgs); err != nil {
		status.Detail = fmt.Sprintf("version probe failed: %v", err)
	}
	return status
}

func probeVersion(ctx context.Context, binary string, args []string) (string, error) {
	probeCtx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()
	output, err := exec.CommandContext(probeCtx, binary, args...).Output() //nolint:gosec
	if err != nil {
		return "", err
	}
	first, _, _ := bytes.Cut(output, []byte("\n"))
	if len(bytes.TrimSpace(first)) == 0 {
		return "", nil
	}
	return parseVersionBanner(string(first)), nil
}
