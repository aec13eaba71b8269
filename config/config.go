package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries the server's tunables. Everything has a default so the
// server runs with no .env at all.
type Config struct {
	Addr          string
	TickHz        int
	CountdownStep time.Duration
	GraceWindow   time.Duration
}

// Load reads an optional .env file and resolves the environment.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded environment variables from .env")
	}
	return Config{
		Addr:          getString("KURVE_ADDR", ":2568"),
		TickHz:        getInt("KURVE_TICK_HZ", 60),
		CountdownStep: getDuration("KURVE_COUNTDOWN_STEP", time.Second),
		GraceWindow:   getDuration("KURVE_GRACE_WINDOW", 30*time.Second),
	}
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}
