package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/otiai10/projectdeck/internal/app"
	"github.com/otiai10/projectdeck/internal/config"
)

func main() {
	// Parse command-line flags
	testMode := flag.Bool("test-mode", false, "Run in test mode (in-memory storage with a demo account)")
	configPath := flag.String("config", "", "Path to a YAML config file (environment variables are used when empty)")
	flag.Parse()

	if *testMode {
		log.Println("⚠️  TEST MODE: data is kept in memory and a demo account is created")
		log.Println("⚠️  Do not use --test-mode in production!")
	}

	// Load .env.localdev file if it exists (for local development)
	// Silently ignore if file doesn't exist (production uses real env vars)
	_ = godotenv.Load(".env.localdev")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []app.Option{}
	if *testMode {
		opts = append(opts, app.WithTestMode())
	}
	if staticFS, ok := getStaticFS(); ok {
		opts = append(opts, app.WithStaticFiles(staticFS, staticRoot()))
	}

	application, err := app.New(ctx, cfg, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	log.Println("projectdeck - Project Dashboard with Subscription Plans")
	if err := application.Run(ctx); err != nil {
		log.Printf("Application error: %v", err)
		application.Close()
		os.Exit(1)
	}

	log.Println("Goodbye!")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}
