package reliability

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/aristath/valuator/internal/database"
	"github.com/rs/zerolog"
)

// minFreeGB halts maintenance when the data volume is almost full
const minFreeGB = 0.5

// Checkpointer is the database surface the maintenance job needs
type Checkpointer interface {
	Name() string
	HealthCheck(ctx context.Context) error
	WALCheckpoint(mode string) error
}

var _ Checkpointer = (*database.DB)(nil)

// MaintenanceJob checks the store and truncates its WAL after a pipeline day
type MaintenanceJob struct {
	db      Checkpointer
	dataDir string
	log     zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(db Checkpointer, dataDir string, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:      db,
		dataDir: dataDir,
		log:     log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

// Run executes the maintenance job
func (j *MaintenanceJob) Run() error {
	j.log.Info().Msg("Starting maintenance")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := j.db.HealthCheck(ctx); err != nil {
		j.log.Error().
			Str("database", j.db.Name()).
			Err(err).
			Msg("CRITICAL: Database integrity check failed")
		return fmt.Errorf("CRITICAL: integrity check failed for %s: %w", j.db.Name(), err)
	}

	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		// not fatal, the next run retries
		j.log.Warn().
			Str("database", j.db.Name()).
			Err(err).
			Msg("WAL checkpoint failed")
	}

	if j.dataDir != "" {
		if err := j.checkDiskSpace(); err != nil {
			return err
		}
	}

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Maintenance completed successfully")

	return nil
}

// checkDiskSpace verifies sufficient disk space is available
func (j *MaintenanceJob) checkDiskSpace() error {
	stat := syscall.Statfs_t{}
	if err := syscall.Statfs(j.dataDir, &stat); err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableGB := float64(stat.Bavail*uint64(stat.Bsize)) / 1e9

	j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")

	if availableGB < minFreeGB {
		j.log.Error().
			Float64("available_gb", availableGB).
			Msg("CRITICAL: Insufficient disk space")
		return fmt.Errorf("CRITICAL: only %.2f GB free in %s", availableGB, j.dataDir)
	}

	return nil
}
