package scheduler

import (
	"context"

	"github.com/aristath/valuator/internal/work"
	"github.com/rs/zerolog"
)

// PipelineRunner runs one pipeline mode
type PipelineRunner interface {
	Run(ctx context.Context, mode work.Mode) (*work.RunReport, error)
}

// PipelineJob runs a pipeline mode on each activation
type PipelineJob struct {
	runner PipelineRunner
	mode   work.Mode
	log    zerolog.Logger
}

// NewPipelineJob creates a new pipeline job
func NewPipelineJob(runner PipelineRunner, mode work.Mode, log zerolog.Logger) *PipelineJob {
	return &PipelineJob{
		runner: runner,
		mode:   mode,
		log:    log.With().Str("job", "pipeline").Str("mode", string(mode)).Logger(),
	}
}

// Name returns the job name
func (j *PipelineJob) Name() string {
	return "pipeline:" + string(j.mode)
}

// Run executes the pipeline with the run timeout
func (j *PipelineJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), work.RunTimeout)
	defer cancel()

	report, err := j.runner.Run(ctx, j.mode)
	if err != nil {
		return err
	}

	j.log.Debug().Str("run_id", report.RunID).Dur("duration_ms", report.Duration).Msg("Scheduled run finished")
	return nil
}
