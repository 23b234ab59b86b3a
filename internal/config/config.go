package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret  string
	ServerPort string
	PublicURL  string

	AnswerPhase      time.Duration
	VotePhase        time.Duration
	InactivityWindow time.Duration
	SweepInterval    time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded .env")
	}

	v := viper.New()
	v.SetEnvPrefix("LITTLELIES")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "postgres")
	v.SetDefault("db_name", "littlelies")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("jwt_secret", "super-secret-key-change-me")
	v.SetDefault("server_port", "8080")
	v.SetDefault("public_url", "http://localhost:8080")
	v.SetDefault("answer_phase_seconds", 60)
	v.SetDefault("vote_phase_seconds", 45)
	v.SetDefault("inactivity_seconds", 120)
	v.SetDefault("sweep_seconds", 5)

	return &Config{
		DBHost:     v.GetString("db_host"),
		DBPort:     v.GetString("db_port"),
		DBUser:     v.GetString("db_user"),
		DBPassword: v.GetString("db_password"),
		DBName:     v.GetString("db_name"),
		DBSSLMode:  v.GetString("db_sslmode"),

		JWTSecret:  v.GetString("jwt_secret"),
		ServerPort: v.GetString("server_port"),
		PublicURL:  v.GetString("public_url"),

		AnswerPhase:      time.Duration(v.GetInt("answer_phase_seconds")) * time.Second,
		VotePhase:        time.Duration(v.GetInt("vote_phase_seconds")) * time.Second,
		InactivityWindow: time.Duration(v.GetInt("inactivity_seconds")) * time.Second,
		SweepInterval:    time.Duration(v.GetInt("sweep_seconds")) * time.Second,
	}
}
