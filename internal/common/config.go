package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Browser   BrowserConfig
	Traversal TraversalConfig
	OCR       OCRConfig
	Output    OutputConfig
	Database  DatabaseConfig
	Calendar  CalendarConfig
	Log       LogConfig
}

// BrowserConfig holds browser-related configuration
type BrowserConfig struct {
	URL          string
	ChromeBin    string
	UserDataDir  string
	Headless     bool
	LoginTimeout time.Duration
}

// TraversalConfig points at the UI offsets profile
type TraversalConfig struct {
	ProfilePath string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract           string
	Lang                string
	TessdataDir         string
	PSM                 int
	OEM                 int
	EnableTSVConfidence bool
	Workers             int
}

// OutputConfig holds where artifacts land
type OutputConfig struct {
	ScreenshotDir string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN         string
	DialTimeout time.Duration
}

// CalendarConfig holds calendar sync configuration
type CalendarConfig struct {
	CalendarID      string
	EventTitle      string
	TimeZone        string
	CredentialsFile string
	TokenFile       string
	Workers         int
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			URL:          getEnv("SHIFTSYNC_URL", "https://wft.homedepot.com/"),
			ChromeBin:    getEnv("CHROME_BIN", ""),
			UserDataDir:  getEnv("CHROME_USER_DATA_DIR", ""),
			Headless:     getEnvAsBool("BROWSER_HEADLESS", false),
			LoginTimeout: getEnvAsDuration("LOGIN_TIMEOUT", 10*time.Minute),
		},
		Traversal: TraversalConfig{
			ProfilePath: getEnv("TRAVERSAL_PROFILE", ""),
		},
		OCR: OCRConfig{
			Tesseract:           getEnv("TESSERACT_BIN", "tesseract"),
			Lang:                getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:         getEnv("TESSDATA_PREFIX", ""),
			PSM:                 getEnvAsInt("TESSERACT_PSM", 0),
			OEM:                 getEnvAsInt("TESSERACT_OEM", 0),
			EnableTSVConfidence: getEnvAsBool("OCR_TSV_CONFIDENCE", false),
			Workers:             getEnvAsInt("OCR_WORKERS", 2),
		},
		Output: OutputConfig{
			ScreenshotDir: getEnv("SCREENSHOT_OUTPUT_DIR", "./screenshots"),
		},
		Database: DatabaseConfig{
			DSN:         getEnv("DB_URL", "file:shiftsync.db"),
			DialTimeout: getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Calendar: CalendarConfig{
			CalendarID:      getEnv("CALENDAR_ID", ""),
			EventTitle:      getEnv("CALENDAR_EVENT_TITLE", "THD"),
			TimeZone:        getEnv("CALENDAR_TIMEZONE", ""),
			CredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
			TokenFile:       getEnv("GOOGLE_TOKEN_FILE", "token.json"),
			Workers:         getEnvAsInt("SYNC_WORKERS", 1),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	v := NewValidator().
		Field("SCREENSHOT_OUTPUT_DIR", c.Output.ScreenshotDir, Required).
		Field("DB_URL", c.Database.DSN, Required).
		Field("TESSERACT_BIN", c.OCR.Tesseract, Required).
		Field("OCR_WORKERS", c.OCR.Workers, Positive).
		Field("SYNC_WORKERS", c.Calendar.Workers, Positive).
		Field("LOG_FORMAT", c.Log.Format, OneOf("text", "json"))
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrConfig)
	}
	return nil
}

// ValidateCalendar checks the settings the sync path needs on top of Validate.
func (c *Config) ValidateCalendar() error {
	v := NewValidator().
		Field("CALENDAR_ID", c.Calendar.CalendarID, Required).
		Field("CALENDAR_EVENT_TITLE", c.Calendar.EventTitle, Required).
		Field("GOOGLE_CREDENTIALS_FILE", c.Calendar.CredentialsFile, Required).
		Field("GOOGLE_TOKEN_FILE", c.Calendar.TokenFile, Required)
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrConfig)
	}
	return nil
}
