package utils

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty string", "", nil},
		{"only separators", " , ,", nil},
		{"single value", "SH600519", []string{"SH600519"}},
		{"varied spacing", "SH600519,  hk00700 , SZ000858", []string{"SH600519", "hk00700", "SZ000858"}},
		{"trailing comma", "SH600519,", []string{"SH600519"}},
		{"leading comma", ",hk00700", []string{"hk00700"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseList(tt.input))
		})
	}
}

func TestTimer(t *testing.T) {
	timer := NewTimer("export", zerolog.New(nil).Level(zerolog.Disabled))
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, timer.Stop(), 5*time.Millisecond)
}
