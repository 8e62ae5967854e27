package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries everything the server needs from the environment.
// Every field has a default so a bare `go run ./cmd/server` works.
type Config struct {
	Addr              string
	DatabaseDSN       string // empty means run with the in-memory repository
	LogFile           string
	ScoreLimit        int
	TickRate          int
	CheckpointSeconds int
}

// Load reads an optional .env file, then the environment.
func Load() *Config {
	_ = godotenv.Load() // missing .env is fine

	return &Config{
		Addr:              getEnv("ADDR", ":8080"),
		DatabaseDSN:       getEnv("DATABASE_DSN", ""),
		LogFile:           getEnv("LOG_FILE", "pong-backend.log"),
		ScoreLimit:        getEnvInt("SCORE_LIMIT", 5),
		TickRate:          getEnvInt("TICK_RATE", 60),
		CheckpointSeconds: getEnvInt("CHECKPOINT_SECONDS", 10),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
