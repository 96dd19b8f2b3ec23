package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Database DatabaseConfig `mapstructure:"database"`
	Artifact ArtifactConfig `mapstructure:"artifact"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// ArchiveConfig controls the fetch pipeline.
type ArchiveConfig struct {
	// APIDomain is appended to the subdomain to form the remote base URL,
	// e.g. subdomain "acme" + domain "campfirenow.com" -> https://acme.campfirenow.com/
	APIDomain string `mapstructure:"api_domain"`
	// BaseURL overrides the derived account URL when set; mainly for pointing
	// the archiver at a relocated or local server.
	BaseURL   string `mapstructure:"base_url"`
	DataRoot  string `mapstructure:"data_root"`
	UserAgent string `mapstructure:"user_agent"`

	TranscriptWorkers int `mapstructure:"transcript_workers"`
	UserWorkers       int `mapstructure:"user_workers"`
	UploadWorkers     int `mapstructure:"upload_workers"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`

	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the driver-specific connection string.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

// ArtifactConfig configures the optional object store for finished archives.
// Type "none" keeps artifacts on local disk only.
type ArtifactConfig struct {
	Type      string `mapstructure:"type"` // none, s3, minio, r2
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

// Enabled reports whether finished archives should be uploaded.
func (c *ArtifactConfig) Enabled() bool {
	return c.Type != "" && c.Type != "none"
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("archive.api_domain", "campfirenow.com")
	v.SetDefault("archive.data_root", "./data/campfire")
	v.SetDefault("archive.user_agent", "Campfire Archiver")
	v.SetDefault("archive.transcript_workers", 20)
	v.SetDefault("archive.user_workers", 10)
	v.SetDefault("archive.upload_workers", 10)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/hearth.db")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("artifact.type", "none")
	v.SetDefault("artifact.use_ssl", true)
	v.SetDefault("artifact.bucket", "hearth-archives")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("log.compress", true)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("artifact.endpoint", "ARTIFACT_ENDPOINT")
	v.BindEnv("artifact.access_key", "ARTIFACT_ACCESS_KEY")
	v.BindEnv("artifact.secret_key", "ARTIFACT_SECRET_KEY")
	v.BindEnv("artifact.bucket", "ARTIFACT_BUCKET")
	v.BindEnv("archive.api_domain", "ARCHIVE_API_DOMAIN")
	v.BindEnv("archive.data_root", "ARCHIVE_DATA_ROOT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
