package reliability

import (
	"context"
	"errors"
	"testing"

	testingpkg "github.com/aristath/valuator/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCheckpointer struct {
	healthErr     error
	checkpointErr error
	checkpoints   []string
}

func (f *fakeCheckpointer) Name() string { return "valuation" }

func (f *fakeCheckpointer) HealthCheck(ctx context.Context) error { return f.healthErr }

func (f *fakeCheckpointer) WALCheckpoint(mode string) error {
	f.checkpoints = append(f.checkpoints, mode)
	return f.checkpointErr
}

func TestMaintenanceJob_Run(t *testing.T) {
	db := &fakeCheckpointer{}
	job := NewMaintenanceJob(db, "", zerolog.New(nil).Level(zerolog.Disabled))

	require.NoError(t, job.Run())
	assert.Equal(t, []string{"TRUNCATE"}, db.checkpoints)
	assert.Equal(t, "maintenance", job.Name())
}

func TestMaintenanceJob_CheckpointFailureIsNotFatal(t *testing.T) {
	db := &fakeCheckpointer{checkpointErr: errors.New("database is locked")}
	job := NewMaintenanceJob(db, "", zerolog.New(nil).Level(zerolog.Disabled))

	assert.NoError(t, job.Run())
}

func TestMaintenanceJob_HealthFailureHalts(t *testing.T) {
	db := &fakeCheckpointer{healthErr: errors.New("malformed")}
	job := NewMaintenanceJob(db, "", zerolog.New(nil).Level(zerolog.Disabled))

	err := job.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "integrity check failed")
	assert.Empty(t, db.checkpoints)
}

func TestMaintenanceJob_RealDatabase(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "valuation")
	defer cleanup()

	job := NewMaintenanceJob(db, "", zerolog.New(nil).Level(zerolog.Disabled))
	assert.NoError(t, job.Run())
}
