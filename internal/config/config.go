package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	StaticDir string
}

func Load() *Config {
	godotenv.Load()
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	staticDir := os.Getenv("STATIC_DIR")
	if staticDir == "" {
		staticDir = "./static"
	}
	return &Config{Port: port, StaticDir: staticDir}
}
