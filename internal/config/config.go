package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `yaml:"env" env-default:"local"`
	ClientURL  string `yaml:"client_url" env-required:"true"`
	EmailFrom  string `yaml:"email_from" env-required:"true"`
	Tokens     `yaml:"tokens"`
	Postgres   `yaml:"postgres"`
	RabbitMQ   `yaml:"rabbitmq"`
	SMTP       `yaml:"smtp"`
	S3         `yaml:"s3"`
	HTTPServer `yaml:"http_server"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Postgres struct {
	Host     string `yaml:"host" env-default:"postgres"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-required:"true"`
	Password string `yaml:"password" env-required:"true"`
	DBName   string `yaml:"dbname" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env-default:"disabled"`
}

// Tokens carries one secret per token purpose. Secrets are never shared
// across purposes, so an activation token can not be replayed as a session
// token.
type Tokens struct {
	ActivationSecret string        `yaml:"activation_secret" env-required:"true"`
	ActivationTTL    time.Duration `yaml:"activation_ttl" env-default:"10m"`
	ResetSecret      string        `yaml:"reset_secret" env-required:"true"`
	ResetTTL         time.Duration `yaml:"reset_ttl" env-default:"10m"`
	SessionSecret    string        `yaml:"session_secret" env-required:"true"`
	SessionTTL       time.Duration `yaml:"session_ttl" env-default:"168h"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env-required:"true"`
	QueueName string `yaml:"queue_name" env-required:"true"`
}

type SMTP struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     int    `yaml:"port" env-default:"587"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type S3 struct {
	Region          string `yaml:"region" env-required:"true"`
	Bucket          string `yaml:"bucket" env-required:"true"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

func MustLoad(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("Config file does not exist" + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("Failed to read config" + err.Error())
	}

	return &cfg
}
