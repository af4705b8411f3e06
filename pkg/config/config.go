package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	Daraja   DarajaConfig
	Orders   OrdersConfig

	AuthRateLimit AuthRateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Daraja.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"DUKA_APP_ENV" required:"true"`
	Port         string   `envconfig:"DUKA_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"DUKA_LOG_LEVEL" default:"info"`
	CORSOrigins  []string `envconfig:"DUKA_CORS_ORIGINS" default:"http://localhost:3000"`
	LogWarnStack bool     `envconfig:"DUKA_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool     `envconfig:"DUKA_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DUKA_DB_DSN"`
	Driver string `envconfig:"DUKA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"DUKA_DB_HOST"`
	Port     int    `envconfig:"DUKA_DB_PORT" default:"5432"`
	User     string `envconfig:"DUKA_DB_USER"`
	Password string `envconfig:"DUKA_DB_PASSWORD"`
	Name     string `envconfig:"DUKA_DB_NAME"`
	SSLMode  string `envconfig:"DUKA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DUKA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DUKA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DUKA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DUKA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DUKA_REDIS_URL"`
	Address      string        `envconfig:"DUKA_REDIS_ADDR"`
	Password     string        `envconfig:"DUKA_REDIS_PASSWORD"`
	DB           int           `envconfig:"DUKA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DUKA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DUKA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DUKA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DUKA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DUKA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// AuthRateLimitConfig throttles credential-bearing endpoints. A zero window
// disables the corresponding limiter.
type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"DUKA_RL_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit       int           `envconfig:"DUKA_RL_LOGIN_IP_LIMIT" default:"10"`
	LoginEmailLimit    int           `envconfig:"DUKA_RL_LOGIN_EMAIL_LIMIT" default:"5"`
	RegisterWindow     time.Duration `envconfig:"DUKA_RL_REGISTER_WINDOW" default:"1m"`
	RegisterIPLimit    int           `envconfig:"DUKA_RL_REGISTER_IP_LIMIT" default:"5"`
	RegisterEmailLimit int           `envconfig:"DUKA_RL_REGISTER_EMAIL_LIMIT" default:"3"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"DUKA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"DUKA_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"DUKA_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"DUKA_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"DUKA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"DUKA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"DUKA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"DUKA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"DUKA_ARGON_KEY_LEN" default:"32"`
}

type OrdersConfig struct {
	// PaidStatus is the order status applied when a payment settles.
	PaidStatus string `envconfig:"DUKA_ORDERS_PAID_STATUS" default:"processing"`
}

// DarajaConfig carries the M-Pesa Daraja credentials and environment selection.
type DarajaConfig struct {
	ConsumerKey    string        `envconfig:"DUKA_MPESA_CONSUMER_KEY"`
	ConsumerSecret string        `envconfig:"DUKA_MPESA_CONSUMER_SECRET"`
	Environment    string        `envconfig:"DUKA_MPESA_ENVIRONMENT" default:"sandbox"`
	PassKey        string        `envconfig:"DUKA_MPESA_PASS_KEY"`
	ShortCode      string        `envconfig:"DUKA_MPESA_SHORT_CODE" default:"174379"`
	CallbackURL    string        `envconfig:"DUKA_MPESA_CALLBACK_URL"`
	Timeout        time.Duration `envconfig:"DUKA_MPESA_TIMEOUT" default:"10s"`
	TokenTTL       time.Duration `envconfig:"DUKA_MPESA_TOKEN_TTL" default:"50m"`
	// AllowedCIDRs are the provider source ranges accepted for callbacks in production.
	AllowedCIDRs []string `envconfig:"DUKA_MPESA_ALLOWED_CIDRS" default:"196.201.214.0/24"`
}

// IsProduction reports whether the live Daraja host should be used.
func (d DarajaConfig) IsProduction() bool {
	return strings.EqualFold(d.Environment, DarajaEnvProduction)
}

// BaseURL returns the provider API host for the configured environment.
func (d DarajaConfig) BaseURL() string {
	if d.IsProduction() {
		return "https://api.safaricom.co.ke"
	}
	return "https://sandbox.safaricom.co.ke"
}

// Validate fails fast when required provider credentials are missing or the
// origin allowlist cannot be parsed. Runs at process start, not first use.
func (d DarajaConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(d.ConsumerKey) == "" {
		missing = append(missing, EnvDarajaConsumerKey)
	}
	if strings.TrimSpace(d.ConsumerSecret) == "" {
		missing = append(missing, EnvDarajaConsumerSecret)
	}
	if strings.TrimSpace(d.PassKey) == "" {
		missing = append(missing, EnvDarajaPassKey)
	}
	if strings.TrimSpace(d.CallbackURL) == "" {
		missing = append(missing, EnvDarajaCallbackURL)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required daraja configuration: %s", strings.Join(missing, ", "))
	}

	switch strings.ToLower(d.Environment) {
	case DarajaEnvSandbox, DarajaEnvProduction:
	default:
		return fmt.Errorf("daraja environment must be %q or %q", DarajaEnvSandbox, DarajaEnvProduction)
	}

	for _, raw := range d.AllowedCIDRs {
		if _, err := netip.ParsePrefix(strings.TrimSpace(raw)); err != nil {
			return fmt.Errorf("invalid daraja allowed cidr %q: %w", raw, err)
		}
	}
	return nil
}

// AllowedPrefixes parses the configured CIDR allowlist. Validate has already
// run by the time this is called, so parse errors are skipped.
func (d DarajaConfig) AllowedPrefixes() []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(d.AllowedCIDRs))
	for _, raw := range d.AllowedCIDRs {
		prefix, err := netip.ParsePrefix(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		prefixes = append(prefixes, prefix)
	}
	return prefixes
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
