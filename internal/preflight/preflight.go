package preflight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dubmux/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Inputs names the directories of one run.
type Inputs struct {
	BaseDir   string
	DonorDir  string
	OutputDir string
	ExportDir string
	// DryRun only needs the inputs to be readable.
	DryRun bool
}

// RunAll executes every check that applies to the run.
func RunAll(ctx context.Context, cfg *config.Config, in Inputs) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, status := range CheckSystemDeps(ctx, cfg) {
		r := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if status.Available {
			r.Detail = strings.TrimSpace(status.Path + " " + status.Version)
		} else if status.Purpose != "" {
			r.Detail = fmt.Sprintf("%s (needed for %s)", status.Detail, status.Purpose)
		}
		results = append(results, r)
	}

	results = append(results,
		CheckDirectoryAccess("Base directory", in.BaseDir, ReadAccess),
		CheckDirectoryAccess("Donor directory", in.DonorDir, ReadAccess),
	)
	if in.DryRun {
		return results
	}
	results = append(results, CheckCreatableDirectory("Output directory", in.OutputDir))
	if in.ExportDir != "" && in.ExportDir != in.OutputDir {
		results = append(results, CheckCreatableDirectory("Export directory", in.ExportDir))
	}
	return results
}

// Failed joins the failed checks into one error, or returns nil.
func Failed(results []Result) error {
	var errs []error
	for _, r := range results {
		if !r.Passed {
			errs = append(errs, fmt.Errorf("%s: %s", r.Name, r.Detail))
		}
	}
	return errors.Join(errs...)
}
