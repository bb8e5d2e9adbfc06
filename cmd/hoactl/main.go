package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mcclellann/hoaLedger/internal/cli"
	"github.com/mcclellann/hoaLedger/internal/config"
	"github.com/mcclellann/hoaLedger/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Reports go to stdout, so logs default to stderr here.
	logCfg := cfg.GetLoggerConfig()
	if logCfg.Output == "" || logCfg.Output == "stdout" {
		logCfg.Output = "stderr"
	}
	closer, err := logger.Setup(logCfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	err = cli.Execute(cfg)
	closer.Close()
	if err != nil {
		os.Exit(1)
	}
}
