package cron

import (
	"context"
	"fmt"
	"strings"
)

// Job is one unit of scheduled work. Name must be unique within a Registry.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the worker's jobs in run order.
type Registry struct {
	order []string
	byKey map[string]Job
}

// NewRegistry registers jobs in the given order, skipping nils.
func NewRegistry(jobs ...Job) (*Registry, error) {
	r := &Registry{byKey: make(map[string]Job, len(jobs))}
	for _, job := range jobs {
		if job == nil {
			continue
		}
		if err := r.Register(job); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends job. Blank or repeated names are rejected.
func (r *Registry) Register(job Job) error {
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return fmt.Errorf("cron job has no name")
	}
	if _, dup := r.byKey[name]; dup {
		return fmt.Errorf("cron job %q registered twice", name)
	}
	r.order = append(r.order, name)
	r.byKey[name] = job
	return nil
}

// Names lists registered job names in run order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Select returns the named jobs in run order, or every job when names is
// empty. Unknown names are an error.
func (r *Registry) Select(names ...string) ([]Job, error) {
	if len(names) == 0 {
		jobs := make([]Job, 0, len(r.order))
		for _, name := range r.order {
			jobs = append(jobs, r.byKey[name])
		}
		return jobs, nil
	}
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if _, ok := r.byKey[name]; !ok {
			return nil, fmt.Errorf("unknown cron job %q (have %s)", name, strings.Join(r.order, ", "))
		}
		wanted[name] = true
	}
	jobs := make([]Job, 0, len(wanted))
	for _, name := range r.order {
		if wanted[name] {
			jobs = append(jobs, r.byKey[name])
		}
	}
	return jobs, nil
}
