package orchestrator

import (
	"errors"
	"time"

	"github.com/crmarques/lioctl/executor"
	"github.com/crmarques/lioctl/faults"
	"github.com/crmarques/lioctl/reconciler"
	"github.com/crmarques/lioctl/resource"
)

type Status string

const (
	StatusUnchanged Status = "unchanged"
	StatusChanged   Status = "changed"
	StatusPlanned   Status = "planned"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

type FieldChange struct {
	Name     string `json:"name" yaml:"name"`
	Desired  string `json:"desired" yaml:"desired"`
	Observed string `json:"observed,omitempty" yaml:"observed,omitempty"`
	Missing  bool   `json:"missing,omitempty" yaml:"missing,omitempty"`
}

type ResourceReport struct {
	Kind     resource.Kind         `json:"kind" yaml:"kind"`
	Path     string                `json:"path" yaml:"path"`
	Ensure   resource.Ensure       `json:"ensure" yaml:"ensure"`
	Action   reconciler.Action     `json:"action,omitempty" yaml:"action,omitempty"`
	Status   Status                `json:"status" yaml:"status"`
	Changes  []FieldChange         `json:"changes,omitempty" yaml:"changes,omitempty"`
	Commands []executor.Invocation `json:"commands,omitempty" yaml:"commands,omitempty"`
	Error    string                `json:"error,omitempty" yaml:"error,omitempty"`
	Category faults.ErrorCategory  `json:"category,omitempty" yaml:"category,omitempty"`

	err error
}

// Err returns the failure of the resource, if any.
func (r ResourceReport) Err() error {
	return r.err
}

type Summary struct {
	Total     int `json:"total" yaml:"total"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
	Changed   int `json:"changed" yaml:"changed"`
	Planned   int `json:"planned" yaml:"planned"`
	Failed    int `json:"failed" yaml:"failed"`
	Skipped   int `json:"skipped" yaml:"skipped"`
}

type Report struct {
	RunID      string           `json:"run_id" yaml:"run_id"`
	DryRun     bool             `json:"dry_run" yaml:"dry_run"`
	StartedAt  time.Time        `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time        `json:"finished_at" yaml:"finished_at"`
	Resources  []ResourceReport `json:"resources" yaml:"resources"`
	Summary    Summary          `json:"summary" yaml:"summary"`
	Archived   bool             `json:"archived,omitempty" yaml:"archived,omitempty"`
	Warnings   []string         `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Mutated reports whether any command of the run changed live state.
func (r Report) Mutated() bool {
	if r.DryRun {
		return false
	}
	for _, item := range r.Resources {
		for _, invocation := range item.Commands {
			if !invocation.Failed && item.Action.Mutating() && !isPersist(invocation) {
				return true
			}
		}
	}
	return false
}

// Err joins the failures of every resource.
func (r Report) Err() error {
	var errs []error
	for _, item := range r.Resources {
		if item.err != nil {
			errs = append(errs, item.err)
		}
	}
	return errors.Join(errs...)
}

func (r *Report) add(item ResourceReport) {
	r.Resources = append(r.Resources, item)
	r.Summary.Total++
	switch item.Status {
	case StatusUnchanged:
		r.Summary.Unchanged++
	case StatusChanged:
		r.Summary.Changed++
	case StatusPlanned:
		r.Summary.Planned++
	case StatusFailed:
		r.Summary.Failed++
	case StatusSkipped:
		r.Summary.Skipped++
	}
}

func newResourceReport(desired resource.Desired, result reconciler.Result, err error) ResourceReport {
	item := ResourceReport{
		Kind:     desired.Kind(),
		Path:     desired.Path(),
		Ensure:   desired.Ensure,
		Action:   result.Action,
		Commands: result.Commands,
	}
	for _, change := range result.Changes {
		item.Changes = append(item.Changes, FieldChange(change))
	}

	switch {
	case err != nil:
		item.Status = StatusFailed
		item.Error = err.Error()
		item.Category = faults.Category(err)
		item.err = err
	case !result.Action.Mutating():
		item.Status = StatusUnchanged
	case result.DryRun:
		item.Status = StatusPlanned
	default:
		item.Status = StatusChanged
	}
	return item
}

func skippedReport(desired resource.Desired) ResourceReport {
	return ResourceReport{
		Kind:   desired.Kind(),
		Path:   desired.Path(),
		Ensure: desired.Ensure,
		Status: StatusSkipped,
	}
}

func isPersist(invocation executor.Invocation) bool {
	return len(invocation.Args) > 0 && invocation.Args[0] == "saveconfig"
}
