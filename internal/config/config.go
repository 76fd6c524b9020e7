package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Blog     BlogConfig     `yaml:"blog"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	LogLevel string         `yaml:"log_level"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type BlogConfig struct {
	PrimarySource string                  `yaml:"primary_source"`
	PostsPerPage  int                     `yaml:"posts_per_page"`
	CacheTTL      time.Duration           `yaml:"cache_ttl"`
	Timeout       time.Duration           `yaml:"timeout"`
	Sources       map[string]SourceConfig `yaml:"sources"`
}

// SourceConfig holds one blog platform's connection parameters.
// Loaded once at startup, immutable afterwards.
type SourceConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Username   string `yaml:"username"`
	APIURL     string `yaml:"api_url"`
	RSSURL     string `yaml:"rss_url"`
	ProfileURL string `yaml:"profile_url"`
}

type RefreshConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Limit    int           `yaml:"limit"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Configured reports whether an archive database was configured at all.
func (d DatabaseConfig) Configured() bool {
	return d.Host != ""
}

type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

func (r RabbitMQConfig) Configured() bool {
	return r.URL != ""
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Blog.PrimarySource == "" {
		c.Blog.PrimarySource = "dev"
	}
	if c.Blog.PostsPerPage == 0 {
		c.Blog.PostsPerPage = 10
	}
	if c.Blog.CacheTTL == 0 {
		c.Blog.CacheTTL = 15 * time.Minute
	}
	if c.Blog.Timeout == 0 {
		c.Blog.Timeout = 30 * time.Second
	}
	if c.Blog.Sources == nil {
		c.Blog.Sources = make(map[string]SourceConfig)
	}
	if c.Refresh.Interval == 0 {
		c.Refresh.Interval = 15 * time.Minute
	}
	if c.Refresh.Limit == 0 {
		c.Refresh.Limit = 50
	}
	if c.RabbitMQ.Configured() {
		if c.RabbitMQ.Exchange == "" {
			c.RabbitMQ.Exchange = "blog_aggregator"
		}
		if c.RabbitMQ.RoutingKey == "" {
			c.RabbitMQ.RoutingKey = "posts"
		}
		if c.RabbitMQ.QueueName == "" {
			c.RabbitMQ.QueueName = "blog_posts"
		}
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
