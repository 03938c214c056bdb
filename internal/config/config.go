package config

import (
	"fmt"
	"time"
)

// Config holds all scrapbook configuration. Every field can come from the
// TOML file, the environment, or its default, in that order of precedence
// with the environment winning.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Store    StoreConfig    `toml:"store"`
	Storage  StorageConfig  `toml:"storage"`
	Admin    AdminConfig    `toml:"admin"`
	Client   ClientConfig   `toml:"client"`
	Log      LogConfig      `toml:"log"`
	Timeline TimelineConfig `toml:"timeline"`
	Media    MediaConfig    `toml:"media"`
	CORS     CORSConfig     `toml:"cors"`
}

type ServerConfig struct {
	Bind            string        `toml:"bind"             env:"SCRAPBOOK_BIND"             env-default:"127.0.0.1"`
	Port            int           `toml:"port"             env:"SCRAPBOOK_PORT"             env-default:"4000"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" env:"SCRAPBOOK_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type StoreConfig struct {
	Backend string `toml:"backend" env:"SCRAPBOOK_STORE" env-default:"json"` // "json", "sqlite", "s3"
	Path    string `toml:"path"    env:"SCRAPBOOK_DATA"  env-default:"data/memories.json"`
	Watch   bool   `toml:"watch"   env:"SCRAPBOOK_WATCH" env-default:"true"`
}

type StorageConfig struct {
	Region          string        `toml:"region"            env:"AWS_REGION"            env-default:"us-west-1"`
	Bucket          string        `toml:"bucket"            env:"S3_BUCKET_NAME"`
	AccessKeyID     string        `toml:"access_key_id"     env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string        `toml:"secret_access_key" env:"AWS_SECRET_ACCESS_KEY"`
	Endpoint        string        `toml:"endpoint"          env:"S3_ENDPOINT"`
	KeyPrefix       string        `toml:"key_prefix"        env:"SCRAPBOOK_KEY_PREFIX"  env-default:"I_love_Jadyn"`
	GetTTL          time.Duration `toml:"get_ttl"           env:"SCRAPBOOK_GET_TTL"     env-default:"10m"`
	PutTTL          time.Duration `toml:"put_ttl"           env:"SCRAPBOOK_PUT_TTL"     env-default:"60s"`
}

// AdminConfig guards the mutation endpoints. An empty key rejects every
// mutation.
type AdminConfig struct {
	Key string `toml:"key" env:"ADMIN_KEY"`
}

// ClientConfig is used by the CLI commands that talk to a running server.
type ClientConfig struct {
	ServerURL string        `toml:"server_url" env:"SCRAPBOOK_URL"     env-default:"http://127.0.0.1:4000"`
	Timeout   time.Duration `toml:"timeout"    env:"SCRAPBOOK_TIMEOUT" env-default:"30s"`
}

type LogConfig struct {
	Level  string `toml:"level"  env:"SCRAPBOOK_LOG_LEVEL"  env-default:"info"`
	Format string `toml:"format" env:"SCRAPBOOK_LOG_FORMAT" env-default:"console"` // "json" or "console"
}

// TimelineConfig shapes the thread on server-rendered timeline pages.
type TimelineConfig struct {
	Curve       float64 `toml:"curve"        env:"SCRAPBOOK_TIMELINE_CURVE"    env-default:"0.5"`
	MinPull     float64 `toml:"min_pull"     env:"SCRAPBOOK_TIMELINE_MIN_PULL" env-default:"60"`
	Beads       int     `toml:"beads"        env:"SCRAPBOOK_TIMELINE_BEADS"    env-default:"6"`
	BottomInset float64 `toml:"bottom_inset" env:"SCRAPBOOK_TIMELINE_INSET"    env-default:"24"`
	Width       float64 `toml:"width"        env:"SCRAPBOOK_TIMELINE_WIDTH"    env-default:"960"`
	RowHeight   float64 `toml:"row_height"   env:"SCRAPBOOK_TIMELINE_ROW"      env-default:"260"`
	Gutter      float64 `toml:"gutter"       env:"SCRAPBOOK_TIMELINE_GUTTER"   env-default:"40"`
}

type MediaConfig struct {
	Dir           string `toml:"dir"             env:"SCRAPBOOK_MEDIA_DIR"       env-default:"public/media"`
	PublicBaseURL string `toml:"public_base_url" env:"SCRAPBOOK_PUBLIC_BASE_URL"`
}

type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins" env:"SCRAPBOOK_CORS_ORIGINS" env-separator:"," env-default:"http://localhost:5173"`
	MaxAge         int      `toml:"max_age"         env:"SCRAPBOOK_CORS_MAX_AGE" env-default:"300"`
}

// Default returns a Config with the same values the env-default tags give.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind:            "127.0.0.1",
			Port:            4000,
			ShutdownTimeout: 5 * time.Second,
		},
		Store: StoreConfig{
			Backend: "json",
			Path:    "data/memories.json",
			Watch:   true,
		},
		Storage: StorageConfig{
			Region:    "us-west-1",
			KeyPrefix: "I_love_Jadyn",
			GetTTL:    10 * time.Minute,
			PutTTL:    60 * time.Second,
		},
		Client: ClientConfig{
			ServerURL: "http://127.0.0.1:4000",
			Timeout:   30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Timeline: TimelineConfig{
			Curve:       0.5,
			MinPull:     60,
			Beads:       6,
			BottomInset: 24,
			Width:       960,
			RowHeight:   260,
			Gutter:      40,
		},
		Media: MediaConfig{
			Dir: "public/media",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:5173"},
			MaxAge:         300,
		},
	}
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
