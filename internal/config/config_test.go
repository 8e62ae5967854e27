package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.DatabaseDSN)
	assert.Equal(t, 5, cfg.ScoreLimit)
	assert.Equal(t, 60, cfg.TickRate)
	assert.Equal(t, 10, cfg.CheckpointSeconds)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9999")
	t.Setenv("SCORE_LIMIT", "11")

	cfg := Load()

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 11, cfg.ScoreLimit)
}

func TestLoad_BadIntFallsBack(t *testing.T) {
	t.Setenv("TICK_RATE", "not-a-number")
	t.Setenv("SCORE_LIMIT", "-3")

	cfg := Load()

	assert.Equal(t, 60, cfg.TickRate)
	assert.Equal(t, 5, cfg.ScoreLimit)
}
