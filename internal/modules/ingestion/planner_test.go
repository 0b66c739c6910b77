package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanRequestSize(t *testing.T) {
	tests := []struct {
		name    string
		hasData bool
		want    int
	}{
		{"cold symbol gets full backfill", false, 2500},
		{"warm symbol gets latest increment", true, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlanRequestSize("SH600519", tt.hasData))
		})
	}
}
