package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	JWT       JWTConfig
	App       AppConfig
	Workplace WorkplaceConfig
	Idle      IdleConfig
	Reconcile ReconcileConfig
	Presence  PresenceConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// WorkplaceConfig holds the office-wide attendance policy. It is constructed
// once and passed into the aggregator and presence validator; nothing reads
// these values as ambient state.
type WorkplaceConfig struct {
	Timezone string // IANA name, e.g. "Asia/Kolkata"

	ShiftStart       string // "15:04", default start used when a worker has no policy
	GraceMinutes     int
	ShiftDuration    time.Duration // standard shift length, drives flexible shift end
	HalfDayThreshold time.Duration // checked-out days shorter than this become half_day
	BreakThreshold   time.Duration // idle sessions at least this long surface as breaks
}

// IdleConfig holds the inactivity policy for the client-side idle monitor.
type IdleConfig struct {
	IdleAfter time.Duration // Active -> Idle
	WarnAfter time.Duration // Idle -> Warning
	Countdown time.Duration // Warning -> AutoLogout
}

// ReconcileConfig drives the daily closeout and hourly flagging jobs.
type ReconcileConfig struct {
	CloseoutHour      int // local hour at which the closeout pass runs
	CutoffHour        int // a day is only marked absent once local time passes this hour
	LookbackDays      int // how many elapsed days each closeout pass backfills
	BusinessHourStart int
	BusinessHourEnd   int
	Interval          time.Duration
}

// PresenceConfig holds the network and location eligibility policy.
type PresenceConfig struct {
	AllowedNetworks []netip.Prefix
	Offices         []Office
	RadiusMeters    float64
}

type Office struct {
	Name      string
	Latitude  float64
	Longitude float64
}

func Load() (*Config, error) {
	// Missing .env is fine; variables may come from the host environment.
	_ = godotenv.Load()

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	dbMaxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	dbMinConns, err := strconv.Atoi(getEnv("DB_MIN_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(dbMaxConns),
		MinConns: int32(dbMinConns),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Workplace policy
	graceMinutes, err := strconv.Atoi(getEnv("SHIFT_GRACE_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHIFT_GRACE_MINUTES: %w", err)
	}
	shiftDuration, err := time.ParseDuration(getEnv("SHIFT_DURATION", "9h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHIFT_DURATION: %w", err)
	}
	halfDay, err := time.ParseDuration(getEnv("HALF_DAY_THRESHOLD", "4h"))
	if err != nil {
		return nil, fmt.Errorf("invalid HALF_DAY_THRESHOLD: %w", err)
	}
	breakThreshold, err := time.ParseDuration(getEnv("BREAK_THRESHOLD", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid BREAK_THRESHOLD: %w", err)
	}

	config.Workplace = WorkplaceConfig{
		Timezone:         getEnv("WORKPLACE_TIMEZONE", "Asia/Kolkata"),
		ShiftStart:       getEnv("SHIFT_START", "10:00"),
		GraceMinutes:     graceMinutes,
		ShiftDuration:    shiftDuration,
		HalfDayThreshold: halfDay,
		BreakThreshold:   breakThreshold,
	}

	// Idle monitor policy
	idleAfter, err := time.ParseDuration(getEnv("IDLE_AFTER", "60m"))
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_AFTER: %w", err)
	}
	warnAfter, err := time.ParseDuration(getEnv("IDLE_WARN_AFTER", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_WARN_AFTER: %w", err)
	}
	countdown, err := time.ParseDuration(getEnv("IDLE_COUNTDOWN", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_COUNTDOWN: %w", err)
	}

	config.Idle = IdleConfig{
		IdleAfter: idleAfter,
		WarnAfter: warnAfter,
		Countdown: countdown,
	}

	// Reconciliation policy
	closeoutHour, err := strconv.Atoi(getEnv("RECONCILE_CLOSEOUT_HOUR", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_CLOSEOUT_HOUR: %w", err)
	}
	cutoffHour, err := strconv.Atoi(getEnv("RECONCILE_CUTOFF_HOUR", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_CUTOFF_HOUR: %w", err)
	}
	lookbackDays, err := strconv.Atoi(getEnv("RECONCILE_LOOKBACK_DAYS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_LOOKBACK_DAYS: %w", err)
	}
	businessStart, err := strconv.Atoi(getEnv("BUSINESS_HOUR_START", "9"))
	if err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_HOUR_START: %w", err)
	}
	businessEnd, err := strconv.Atoi(getEnv("BUSINESS_HOUR_END", "19"))
	if err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_HOUR_END: %w", err)
	}

	config.Reconcile = ReconcileConfig{
		CloseoutHour:      closeoutHour,
		CutoffHour:        cutoffHour,
		LookbackDays:      lookbackDays,
		BusinessHourStart: businessStart,
		BusinessHourEnd:   businessEnd,
		Interval:          time.Hour,
	}

	// Presence eligibility policy
	var networks []netip.Prefix
	for _, cidr := range getEnvSlice("ALLOWED_NETWORKS") {
		prefix, err := netip.ParsePrefix(strings.TrimSpace(cidr))
		if err != nil {
			return nil, fmt.Errorf("invalid ALLOWED_NETWORKS entry %q: %w", cidr, err)
		}
		networks = append(networks, prefix)
	}

	radius, err := strconv.ParseFloat(getEnv("OFFICE_RADIUS_METERS", "200"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid OFFICE_RADIUS_METERS: %w", err)
	}

	config.Presence = PresenceConfig{
		AllowedNetworks: networks,
		Offices:         parseOffices(getEnvSlice("OFFICE_LOCATIONS")),
		RadiusMeters:    radius,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.LoadLocation(c.Workplace.Timezone); err != nil {
		return fmt.Errorf("WORKPLACE_TIMEZONE is not a valid IANA zone: %w", err)
	}
	if _, err := time.Parse("15:04", c.Workplace.ShiftStart); err != nil {
		return fmt.Errorf("SHIFT_START must be HH:MM: %w", err)
	}
	if c.Workplace.GraceMinutes < 0 {
		return fmt.Errorf("SHIFT_GRACE_MINUTES must not be negative")
	}
	if c.Reconcile.LookbackDays < 1 {
		return fmt.Errorf("RECONCILE_LOOKBACK_DAYS must be at least 1")
	}
	return nil
}

// Location resolves the workplace timezone. Validate guarantees resolution
// succeeds once the config has loaded.
func (c *WorkplaceConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// parseOffices parses "name:lat:lon" triples, skipping malformed entries.
func parseOffices(entries []string) []Office {
	var offices []Office
	for _, entry := range entries {
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			continue
		}
		lat, latErr := strconv.ParseFloat(parts[1], 64)
		lon, lonErr := strconv.ParseFloat(parts[2], 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		offices = append(offices, Office{Name: parts[0], Latitude: lat, Longitude: lon})
	}
	return offices
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string = strings.Split(value, ",")
	return result
}
