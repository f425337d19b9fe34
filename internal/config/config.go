package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds application configuration values.
type Config struct {
	Env string `validate:"required,oneof=dev prod"`
	DB  struct {
		Path        string        `validate:"required"`
		TxLock      string        `validate:"oneof=deferred immediate exclusive"`
		BusyTimeout time.Duration `validate:"gte=0"`
	}
	Retry struct {
		Attempts int           `validate:"gte=1"`
		Delay    time.Duration `validate:"gte=0"`
	}
	Wait struct {
		Attempts   int           `validate:"gte=1"`
		Delay      time.Duration `validate:"gte=0"`
		Backoff    float64       `validate:"gte=1"`
		MaxDelay   time.Duration `validate:"gtefield=Delay"`
		MaxElapsed time.Duration `validate:"gte=0"`
	}
	Watch struct {
		Schedule string `validate:"required,cron"`
		Overlap  string `validate:"oneof=skip delay allow"`
	}
	Log struct {
		ConsoleLevel string `validate:"required,oneof=debug info warn error"`
		FileLevel    string `validate:"required,oneof=debug info warn error"`
		File         string
	}
}

var validate = newValidator()

// scheduleParser accepts the same schedules as the watch scheduler:
// five or six fields and descriptors such as @every.
var scheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
		_, err := scheduleParser.Parse(fl.Field().String())
		return err == nil
	})
	return v
}

// Load reads configuration from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	var (
		c   Config
		err error
	)
	c.Env = getenv("ENV", "prod")
	c.DB.Path = getenv("DB_PATH", "data/users.db")
	c.DB.TxLock = strings.ToLower(getenv("DB_TX_LOCK", "deferred"))
	if c.DB.BusyTimeout, err = getDuration("DB_BUSY_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if c.Retry.Attempts, err = getInt("RETRY_ATTEMPTS", 3); err != nil {
		return Config{}, err
	}
	if c.Retry.Delay, err = getDuration("RETRY_DELAY", time.Second); err != nil {
		return Config{}, err
	}
	if c.Wait.Attempts, err = getInt("WAIT_ATTEMPTS", 10); err != nil {
		return Config{}, err
	}
	if c.Wait.Delay, err = getDuration("WAIT_DELAY", time.Second); err != nil {
		return Config{}, err
	}
	if c.Wait.Backoff, err = getFloat("WAIT_BACKOFF", 1); err != nil {
		return Config{}, err
	}
	if c.Wait.MaxDelay, err = getDuration("WAIT_MAX_DELAY", 30*time.Second); err != nil {
		return Config{}, err
	}
	if c.Wait.MaxElapsed, err = getDuration("WAIT_MAX_ELAPSED", 0); err != nil {
		return Config{}, err
	}
	c.Watch.Schedule = getenv("WATCH_SCHEDULE", "@every 1m")
	c.Watch.Overlap = strings.ToLower(getenv("WATCH_OVERLAP", "skip"))
	c.Log.ConsoleLevel = strings.ToLower(getenv("LOG_CONSOLE_LEVEL", "info"))
	c.Log.FileLevel = strings.ToLower(getenv("LOG_FILE_LEVEL", "debug"))
	c.Log.File = os.Getenv("LOG_FILE")

	if err := validate.Struct(c); err != nil {
		return Config{}, err
	}
	return c, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func getFloat(k string, def float64) (float64, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return f, nil
}

func getDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}
