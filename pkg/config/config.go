package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Mailer        MailerConfig
	Uploads       UploadsConfig
	OTP           OTPConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GYMSTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"GYMSTORE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GYMSTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GYMSTORE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GYMSTORE_DB_DSN"`
	Driver string `envconfig:"GYMSTORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GYMSTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"GYMSTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GYMSTORE_DB_USER"`
	LegacyPassword string `envconfig:"GYMSTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"GYMSTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"GYMSTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GYMSTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GYMSTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GYMSTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GYMSTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GYMSTORE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GYMSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"GYMSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"GYMSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GYMSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GYMSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GYMSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GYMSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GYMSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"GYMSTORE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"GYMSTORE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"GYMSTORE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"GYMSTORE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
	CookieName             string `envconfig:"GYMSTORE_JWT_COOKIE_NAME" default:"gymstore_token"`
	CookieSecure           bool   `envconfig:"GYMSTORE_JWT_COOKIE_SECURE" default:"true"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GYMSTORE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GYMSTORE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GYMSTORE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GYMSTORE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GYMSTORE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"GYMSTORE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"GYMSTORE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"GYMSTORE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"GYMSTORE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"GYMSTORE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"GYMSTORE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GYMSTORE_AUTO_MIGRATE" default:"false"`
}

type MailerConfig struct {
	APIKey      string `envconfig:"GYMSTORE_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"GYMSTORE_SENDGRID_FROM_EMAIL"`
	BaseURL     string `envconfig:"GYMSTORE_SENDGRID_BASE_URL" default:"https://api.sendgrid.com"`
}

// Enabled reports whether outbound email is configured; when false the
// services log and skip delivery instead of failing.
func (m MailerConfig) Enabled() bool {
	return strings.TrimSpace(m.APIKey) != "" && strings.TrimSpace(m.DefaultFrom) != ""
}

type UploadsConfig struct {
	Dir         string `envconfig:"GYMSTORE_UPLOADS_DIR" default:"uploads"`
	MaxUploadMB int    `envconfig:"GYMSTORE_MAX_UPLOAD_MB" default:"10"`
}

type OTPConfig struct {
	TTL    time.Duration `envconfig:"GYMSTORE_OTP_TTL" default:"10m"`
	Digits int           `envconfig:"GYMSTORE_OTP_DIGITS" default:"6"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
