package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig   `yaml:"server"`
	Log       LogConfig      `yaml:"log"`
	Database  DatabaseConfig `yaml:"database"`
	Minio     MinioConfig    `yaml:"minio"`
	Auth      AuthConfig     `yaml:"auth"`
	Contracts ContractConfig `yaml:"contracts"`
	Users     []User         `yaml:"users"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig configures the MySQL connection. An empty DSN switches the
// server to the in-memory stores (demo mode).
type DatabaseConfig struct {
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifeMins int    `yaml:"conn_max_life_mins"`
}

type MinioConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

// ContractConfig holds the signing-link settings: where the agreement template
// PDFs live on disk, the optional company counter-signature image, and the
// base URL share links are minted under.
type ContractConfig struct {
	PublicBaseURL        string            `yaml:"public_base_url"`
	TemplateDir          string            `yaml:"template_dir"`
	TemplateFiles        map[string]string `yaml:"template_files"`
	CounterSignaturePath string            `yaml:"counter_signature_path"`
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

var GlobalConfig *Config

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.ConnMaxLifeMins == 0 {
		cfg.Database.ConnMaxLifeMins = 30
	}
	if cfg.Minio.ExpireDays == 0 {
		cfg.Minio.ExpireDays = 7
	}
	if cfg.Auth.TokenExpireHours == 0 {
		cfg.Auth.TokenExpireHours = 24
	}
	if cfg.Contracts.PublicBaseURL == "" {
		cfg.Contracts.PublicBaseURL = "http://localhost:8080"
	}
	if cfg.Contracts.TemplateDir == "" {
		cfg.Contracts.TemplateDir = "./templates"
	}
	if cfg.Contracts.TemplateFiles == nil {
		cfg.Contracts.TemplateFiles = map[string]string{
			"trial":   "trial_agreement.pdf",
			"service": "service_agreement.pdf",
		}
	}

	GlobalConfig = &cfg
	return &cfg, nil
}

// FindUser finds a staff user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
