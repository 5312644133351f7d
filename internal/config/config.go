package config

import "time"

// Config es la configuración raíz de la aplicación.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Calendar CalendarConfig `yaml:"calendar"`
	Notify   NotifyConfig   `yaml:"notify"`
	Errors   ErrorsConfig   `yaml:"errors"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"5s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	Swagger         bool          `yaml:"swagger"          env:"SERVER_SWAGGER"          env-default:"true"`
}

// StoreConfig elige el backend del document store: memory, postgres o mongo.
type StoreConfig struct {
	Driver          string        `yaml:"driver"             env:"STORE_DRIVER"           env-default:"memory"`
	DSN             string        `yaml:"dsn"                env:"DB_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DB_MAX_CONNS"           env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DB_MIN_CONNS"           env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DB_MAX_CONN_LIFETIME"   env-default:"30m"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME"  env-default:"5m"`
	AutoMigrate     bool          `yaml:"auto_migrate"       env:"DB_AUTO_MIGRATE"        env-default:"false"`
	MongoURI        string        `yaml:"mongo_uri"          env:"MONGO_URI"`
	MongoDatabase   string        `yaml:"mongo_database"     env:"MONGO_DATABASE"         env-default:"clinic"`
}

// AuthConfig: dev acepta X-Debug-User-ID; jwt verifica HS256 local; identity consulta al proveedor.
type AuthConfig struct {
	Mode            string        `yaml:"mode"              env:"AUTH_MODE"              env-default:"dev"`
	JWTSecret       string        `yaml:"jwt_secret"        env:"AUTH_JWT_SECRET"`
	JWTIssuer       string        `yaml:"jwt_issuer"        env:"AUTH_JWT_ISSUER"`
	IdentityBaseURL string        `yaml:"identity_base_url" env:"AUTH_IDENTITY_BASE_URL"`
	IdentityAPIKey  string        `yaml:"identity_api_key"  env:"AUTH_IDENTITY_API_KEY"`
	IdentityTimeout time.Duration `yaml:"identity_timeout"  env:"AUTH_IDENTITY_TIMEOUT"  env-default:"5s"`
}

type LogConfig struct {
	Level   string `yaml:"level"    env:"LOG_LEVEL"  env-default:"info"`
	Format  string `yaml:"format"   env:"LOG_FORMAT" env-default:"text"`
	AppName string `yaml:"app_name" env:"APP_NAME"   env-default:"clinic-console"`
}

type CalendarConfig struct {
	MonthsBefore int    `yaml:"months_before" env:"CALENDAR_MONTHS_BEFORE" env-default:"1"`
	MonthsAfter  int    `yaml:"months_after"  env:"CALENDAR_MONTHS_AFTER"  env-default:"2"`
	Timezone     string `yaml:"timezone"      env:"CALENDAR_TZ"            env-default:"Local"`
}

type NotifyConfig struct {
	History int `yaml:"history" env:"NOTIFY_HISTORY" env-default:"100"`
}

// ErrorsConfig: destinos opcionales para los errores remotos del bus.
type ErrorsConfig struct {
	NATSURL     string `yaml:"nats_url"     env:"ERRORS_NATS_URL"`
	NATSSubject string `yaml:"nats_subject" env:"ERRORS_NATS_SUBJECT" env-default:"clinic.errors"`
	SentryDSN   string `yaml:"sentry_dsn"   env:"SENTRY_DSN"`
	SentryEnv   string `yaml:"sentry_env"   env:"SENTRY_ENVIRONMENT"  env-default:"development"`
}
