package config

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
)

type Config struct {
	MinIOBucket string        `yaml:"minio_bucket"`
	App         App           `yaml:"app"`
	DB          *sql.DB       `yaml:"db"`
	Queue       *RabbitMQ     `yaml:"rabbitmq"`
	Storage     *minio.Client `yaml:"storage"`
	Server      Server        `yaml:"server"`
	Media       Media         `yaml:"media"`
	Transcriber Transcriber   `yaml:"transcriber"`
	Session     Session       `yaml:"session"`
}

type App struct {
	Environment string `yaml:"environment"`
	Host        string `yaml:"host"`
	Protocol    string `yaml:"protocol"`
}

type Server struct {
	HttpPort string `yaml:"http_port"`
	Workers  int    `yaml:"workers"`
}

type RabbitMQ struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	User string `json:"user"`
	Pass string `json:"pass"`
	Kind string `json:"kind"`
}

// Media configures how recording media is pulled from the telephony provider.
type Media struct {
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	MaxRedirects int           `yaml:"max_redirects"`
	AccountSid   string        `yaml:"account_sid"`
	AuthToken    string        `yaml:"auth_token"`
}

type Transcriber struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// Session bounds the in-memory conference session tracker. TTL is an
// operational tuning knob, not a correctness constant: it only needs to
// outlive the gap between a call leaving and its stem completion webhook.
type Session struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

func Load(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("media.fetch_timeout", "30s")
	viper.SetDefault("media.max_redirects", 5)
	viper.SetDefault("transcriber.timeout", "120s")
	viper.SetDefault("session.ttl", "2h")
	viper.SetDefault("session.sweep_interval", "10m")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", viper.GetString("postgresql_host"))
	if err != nil {
		return nil, err
	}

	rabbitmq := &RabbitMQ{
		Host: viper.GetString("rabbitmq_host"),
		Port: viper.GetInt("rabbitmq_port"),
		User: viper.GetString("rabbitmq_user"),
		Pass: viper.GetString("rabbitmq_pass"),
		Kind: viper.GetString("rabbitmq_kind"),
	}

	minioClient, err := minio.New(viper.GetString("minio.url"), &minio.Options{
		Creds:  credentials.NewStaticV4(viper.GetString("minio.access_id"), viper.GetString("minio.secret_access_key"), ""),
		Secure: false,
	})
	if err != nil {
		return nil, err
	}

	return &Config{
		MinIOBucket: viper.GetString("minio.bucket"),
		App: App{
			Environment: viper.GetString("app.environment"),
			Host:        viper.GetString("app.host"),
			Protocol:    viper.GetString("app.protocol"),
		},
		Server: Server{
			HttpPort: viper.GetString("server.port"),
			Workers:  viper.GetInt("server.workers"),
		},
		Media: Media{
			FetchTimeout: viper.GetDuration("media.fetch_timeout"),
			MaxRedirects: viper.GetInt("media.max_redirects"),
			AccountSid:   viper.GetString("media.account_sid"),
			AuthToken:    viper.GetString("media.auth_token"),
		},
		Transcriber: Transcriber{
			URL:     viper.GetString("transcriber.url"),
			APIKey:  viper.GetString("transcriber.api_key"),
			Timeout: viper.GetDuration("transcriber.timeout"),
		},
		Session: Session{
			TTL:           viper.GetDuration("session.ttl"),
			SweepInterval: viper.GetDuration("session.sweep_interval"),
		},
		DB:      db,
		Queue:   rabbitmq,
		Storage: minioClient,
	}, nil
}
