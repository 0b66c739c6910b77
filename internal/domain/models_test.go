package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfitForecast_CreatedAtOmittedWhenUnknown(t *testing.T) {
	f := ProfitForecast{Symbol: "SH600519", ForecastYear: 2025, ForecastNetProfit: 9e10, ForecastDate: "2024-03-02"}

	raw, err := json.Marshal(f)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "created_at")

	created := time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC)
	f.CreatedAt = &created
	raw, err = json.Marshal(f)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"created_at":"2024-03-02T08:30:00Z"`)
}
