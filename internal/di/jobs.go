package di

import (
	"fmt"
	"path/filepath"

	"github.com/aristath/valuator/internal/reliability"
	"github.com/aristath/valuator/internal/scheduler"
	"github.com/aristath/valuator/internal/work"
	"github.com/rs/zerolog"
)

// maintenanceSchedule runs after the weekday pipeline has settled
const maintenanceSchedule = "0 0 3 * * *"

// JobInstances holds the registered jobs
type JobInstances struct {
	Pipeline    *scheduler.PipelineJob
	Maintenance *reliability.MaintenanceJob
}

// RegisterJobs registers the pipeline on spec and the nightly maintenance
func RegisterJobs(sched *scheduler.Scheduler, container *Container, spec string, mode work.Mode, log zerolog.Logger) (*JobInstances, error) {
	jobs := &JobInstances{
		Pipeline:    scheduler.NewPipelineJob(container.Pipeline, mode, log),
		Maintenance: reliability.NewMaintenanceJob(container.DB, filepath.Dir(container.Config.DBPath), log),
	}

	if err := sched.AddJob(spec, jobs.Pipeline); err != nil {
		return nil, fmt.Errorf("failed to register pipeline job: %w", err)
	}
	if err := sched.AddJob(maintenanceSchedule, jobs.Maintenance); err != nil {
		return nil, fmt.Errorf("failed to register maintenance job: %w", err)
	}

	return jobs, nil
}
