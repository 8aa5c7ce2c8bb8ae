package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Port        int    `yaml:"port"`
	GinMode     string `yaml:"gin_mode"`
	Environment string `yaml:"environment"`
	Timezone    string `yaml:"timezone"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	Issuer     string `yaml:"issuer"`
	AccessTTL  string `yaml:"access_ttl"`
	RefreshTTL string `yaml:"refresh_ttl"`
}

type OTPConfig struct {
	TTL          string `yaml:"ttl"`
	Length       int    `yaml:"length"`
	MaxAttempts  int    `yaml:"max_attempts"`
	ResendWindow string `yaml:"resend_window"`
}

type RateLimitConfig struct {
	OTPRequests int    `yaml:"otp_requests"`
	Window      string `yaml:"window"`
}

type TwilioConfig struct {
	AccountSID  string `yaml:"account_sid"`
	AuthToken   string `yaml:"auth_token"`
	FromNumber  string `yaml:"from_number"`
	CountryCode string `yaml:"country_code"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type CasbinConfig struct {
	ModelPath   string `yaml:"model_path"`
	SeedDefault bool   `yaml:"seed_default"`
}

type ConfigFile struct {
	App       AppConfig       `yaml:"app"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	OTP       OTPConfig       `yaml:"otp"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Twilio    TwilioConfig    `yaml:"twilio"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Casbin    CasbinConfig    `yaml:"casbin"`

	OwnershipRules []OwnershipRule `yaml:"ownership_rules"`
}

// Config is built once at startup and handed to every component that needs it.
type Config struct {
	Port             string
	GinMode          string
	Environment      string
	Timezone         string
	LogLevel         string
	LogFormat        string
	DSN              string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	JWTSecret        string
	JWTIssuer        string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	OTP_TTL          time.Duration
	OTP_Length       int
	OTP_MaxAttempts  int
	OTP_ResendWindow time.Duration
	OTPRateLimit     int
	RateLimitWindow  time.Duration
	TwilioSID        string
	TwilioToken      string
	TwilioFrom       string
	CountryCode      string
	KafkaBrokers     []string
	KafkaTopic       string
	CasbinModelPath  string
	SeedPolicies     bool
	OwnershipRules   []OwnershipRule
}

// Defaults returns the file-level defaults applied before YAML and env overrides.
func Defaults() ConfigFile {
	return ConfigFile{
		App:       AppConfig{Port: 5000, GinMode: "release", Environment: "development", Timezone: "Asia/Kolkata"},
		Log:       LogConfig{Level: "info", Format: "console"},
		Redis:     RedisConfig{Addr: "localhost:6379"},
		JWT:       JWTConfig{Issuer: "gymdesk", AccessTTL: "168h", RefreshTTL: "720h"},
		OTP:       OTPConfig{TTL: "10m", Length: 4, MaxAttempts: 3, ResendWindow: "2m"},
		RateLimit: RateLimitConfig{OTPRequests: 10, Window: "15m"},
		Twilio:    TwilioConfig{CountryCode: "91"},
		Kafka:     KafkaConfig{Topic: "gymdesk.audit"},
		Casbin:    CasbinConfig{SeedDefault: true},
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// Load reads .env, then the optional YAML file at path, then environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	file, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Build(file)
}

// LoadFile layers .env, the YAML file and the environment over Defaults
// without validating. Tools that need only part of the settings use it.
func LoadFile(path string) (ConfigFile, error) {
	_ = godotenv.Load()

	file := Defaults()
	if err := loadConfigFile(path, &file); err != nil {
		return ConfigFile{}, err
	}
	applyEnv(&file)
	return file, nil
}

// Build turns a ConfigFile into a validated Config.
func Build(file ConfigFile) (*Config, error) {
	accTTL, err := parseDuration("JWT access TTL", file.JWT.AccessTTL)
	if err != nil {
		return nil, err
	}
	refTTL, err := parseDuration("JWT refresh TTL", file.JWT.RefreshTTL)
	if err != nil {
		return nil, err
	}
	otpTTL, err := parseDuration("OTP TTL", file.OTP.TTL)
	if err != nil {
		return nil, err
	}
	resWnd, err := parseDuration("OTP resend window", file.OTP.ResendWindow)
	if err != nil {
		return nil, err
	}
	rlWnd, err := parseDuration("rate limit window", file.RateLimit.Window)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:             strconv.Itoa(file.App.Port),
		GinMode:          file.App.GinMode,
		Environment:      file.App.Environment,
		Timezone:         file.App.Timezone,
		LogLevel:         file.Log.Level,
		LogFormat:        file.Log.Format,
		DSN:              file.Database.DSN,
		RedisAddr:        file.Redis.Addr,
		RedisPassword:    file.Redis.Password,
		RedisDB:          file.Redis.DB,
		JWTSecret:        file.JWT.Secret,
		JWTIssuer:        file.JWT.Issuer,
		AccessTTL:        accTTL,
		RefreshTTL:       refTTL,
		OTP_TTL:          otpTTL,
		OTP_Length:       file.OTP.Length,
		OTP_MaxAttempts:  file.OTP.MaxAttempts,
		OTP_ResendWindow: resWnd,
		OTPRateLimit:     file.RateLimit.OTPRequests,
		RateLimitWindow:  rlWnd,
		TwilioSID:        file.Twilio.AccountSID,
		TwilioToken:      file.Twilio.AuthToken,
		TwilioFrom:       file.Twilio.FromNumber,
		CountryCode:      file.Twilio.CountryCode,
		KafkaBrokers:     file.Kafka.Brokers,
		KafkaTopic:       file.Kafka.Topic,
		CasbinModelPath:  file.Casbin.ModelPath,
		SeedPolicies:     file.Casbin.SeedDefault,
		OwnershipRules:   append(DefaultOwnershipRules(), file.OwnershipRules...),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is required (JWT_SECRET)"))
	}
	if c.OTP_Length < 4 || c.OTP_Length > 8 {
		errs = append(errs, fmt.Errorf("otp length must be between 4 and 8, got %d", c.OTP_Length))
	}
	if c.OTP_MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("otp max attempts must be positive, got %d", c.OTP_MaxAttempts))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err))
	}
	return errors.Join(errs...)
}

// Location is the studio's local timezone, used for dates and message timestamps.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func parseDuration(name, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}

func loadConfigFile(path string, into *ConfigFile) error {
	if path == "" {
		return nil
	}
	bytes, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not read config file at %s: %w", path, err)
	}
	if err := yaml.Unmarshal(bytes, into); err != nil {
		return fmt.Errorf("could not parse config yaml: %w", err)
	}
	return nil
}

func applyEnv(f *ConfigFile) {
	f.App.Port = envInt("PORT", f.App.Port)
	f.App.GinMode = env("GIN_MODE", f.App.GinMode)
	f.App.Environment = env("APP_ENV", f.App.Environment)
	f.App.Timezone = env("APP_TIMEZONE", f.App.Timezone)
	f.Log.Level = env("LOG_LEVEL", f.Log.Level)
	f.Log.Format = env("LOG_FORMAT", f.Log.Format)
	f.Database.DSN = env("DATABASE_URL", f.Database.DSN)
	f.Redis.Addr = env("REDIS_ADDR", f.Redis.Addr)
	f.Redis.Password = env("REDIS_PASSWORD", f.Redis.Password)
	f.Redis.DB = envInt("REDIS_DB", f.Redis.DB)
	f.JWT.Secret = env("JWT_SECRET", f.JWT.Secret)
	f.JWT.Issuer = env("JWT_ISSUER", f.JWT.Issuer)
	f.JWT.AccessTTL = env("JWT_ACCESS_TTL", f.JWT.AccessTTL)
	f.JWT.RefreshTTL = env("JWT_REFRESH_TTL", f.JWT.RefreshTTL)
	f.OTP.TTL = env("OTP_TTL", f.OTP.TTL)
	f.OTP.ResendWindow = env("OTP_RESEND_WINDOW", f.OTP.ResendWindow)
	f.Twilio.AccountSID = env("TWILIO_ACCOUNT_SID", f.Twilio.AccountSID)
	f.Twilio.AuthToken = env("TWILIO_AUTH_TOKEN", f.Twilio.AuthToken)
	f.Twilio.FromNumber = env("TWILIO_WHATSAPP_NUMBER", f.Twilio.FromNumber)
	if brokers := env("KAFKA_BROKERS", ""); brokers != "" {
		f.Kafka.Brokers = strings.Split(brokers, ",")
	}
	f.Kafka.Topic = env("KAFKA_TOPIC", f.Kafka.Topic)
	f.Casbin.ModelPath = env("CASBIN_MODEL_PATH", f.Casbin.ModelPath)
}
