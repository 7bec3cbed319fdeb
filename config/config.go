package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kmahoney/robotourney/models"
	"github.com/kmahoney/robotourney/schedule"
)

// Config holds all application configuration parameters.
type Config struct {
	DatabaseURL    string
	ServerPort     int
	ChallengeFile  string
	WinnerCriteria models.WinnerCriteria
	ScheduleParams schedule.Params

	// Cloudflare R2 report snapshots; all five must be set to enable.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// R2Enabled reports whether report snapshot uploads are configured.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

// Load reads configuration from environment variables, optionally
// seeded from a .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	criteria := models.HighScoreWins
	switch raw := os.Getenv("WINNER_CRITERIA"); raw {
	case "", string(models.HighScoreWins):
	case string(models.LowScoreWins):
		criteria = models.LowScoreWins
	default:
		return nil, fmt.Errorf("WINNER_CRITERIA must be %q or %q, got %q",
			models.HighScoreWins, models.LowScoreWins, raw)
	}

	params, err := loadScheduleParams()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:    dbURL,
		ServerPort:     port,
		ChallengeFile:  os.Getenv("CHALLENGE_FILE"),
		WinnerCriteria: criteria,
		ScheduleParams: params,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}

func loadScheduleParams() (schedule.Params, error) {
	params := schedule.DefaultParams()

	overrides := []struct {
		env  string
		dest *time.Duration
	}{
		{"PERFORMANCE_DURATION_MINUTES", &params.PerformanceDuration},
		{"SUBJECTIVE_DURATION_MINUTES", &params.SubjectiveDuration},
		{"CHANGETIME_MINUTES", &params.Changetime},
		{"PERFORMANCE_CHANGETIME_MINUTES", &params.PerformanceChangetime},
	}
	for _, o := range overrides {
		raw := os.Getenv(o.env)
		if raw == "" {
			continue
		}
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes < 0 {
			return params, fmt.Errorf("invalid %s environment variable: %q", o.env, raw)
		}
		*o.dest = time.Duration(minutes) * time.Minute
	}

	if raw := os.Getenv("SUBJECTIVE_STATIONS"); raw != "" {
		stations := make([]string, 0)
		for _, station := range strings.Split(raw, ",") {
			if station = strings.TrimSpace(station); station != "" {
				stations = append(stations, station)
			}
		}
		if len(stations) == 0 {
			return params, fmt.Errorf("SUBJECTIVE_STATIONS must name at least one station")
		}
		params.SubjectiveStations = stations
	}

	return params, nil
}
