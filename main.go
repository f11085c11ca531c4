package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/LeeviJ/triolasku-sub000/cmd"
	"github.com/LeeviJ/triolasku-sub000/internal/config"
	"github.com/LeeviJ/triolasku-sub000/internal/logger"
)

func main() {
	// Amounts go out as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true

	// Load environment variables
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load configuration: %v", err)
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	log := logger.WithComponent("main")
	log.Debug().Msg("Starting lasku")

	cmd.Execute()

	log.Debug().Msg("lasku finished")
	os.Exit(0)
}
