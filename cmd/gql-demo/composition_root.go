package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"go-gql-cache/internal/client"
	"go-gql-cache/internal/config"
	"go-gql-cache/internal/httpserver"
)

// CompositionRoot holds all application dependencies and provides a
// centralized place for dependency injection and service initialization.
// The rate limit monitor and cache store are constructed once here and
// owned by the client, never as package globals.
type CompositionRoot struct {
	Config      *config.Config
	Logger      *zap.Logger
	Client      *client.Client
	StatsServer *httpserver.Server
}

// NewCompositionRoot creates and initializes all application dependencies.
//
// Initialization order:
// 1. Logger (needed by all other components)
// 2. Configuration (defines how components should be configured)
// 3. API client (transport, cache, rate limit monitor, batch scheduler)
// 4. Stats server (optional, uses the client)
func NewCompositionRoot() (*CompositionRoot, error) {
	root := &CompositionRoot{}

	if err := root.initLogger(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := root.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := root.initClient(); err != nil {
		return nil, fmt.Errorf("failed to initialize client: %w", err)
	}

	root.initStatsServer()

	return root, nil
}

// initLogger initializes the application logger
func (r *CompositionRoot) initLogger() error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	r.Logger = logger
	return nil
}

// loadConfig loads the application configuration
func (r *CompositionRoot) loadConfig() error {
	configPath := os.Getenv("GQL_CACHE_CONFIG_FILE")

	cfg, err := config.LoadConfig(configPath, r.Logger)
	if err != nil {
		return err
	}

	r.Config = cfg
	return nil
}

// initClient builds the API client from the configured credential
func (r *CompositionRoot) initClient() error {
	token := os.Getenv("GQL_API_TOKEN")
	if token == "" {
		return fmt.Errorf("GQL_API_TOKEN environment variable is required")
	}

	apiClient, err := client.NewWithToken(token, r.Config, r.Logger)
	if err != nil {
		return err
	}

	r.Client = apiClient
	return nil
}

// initStatsServer initializes the optional stats server
func (r *CompositionRoot) initStatsServer() {
	if !r.Config.StatsServer.Enabled {
		return
	}
	r.StatsServer = httpserver.NewServer(r.Client, r.Logger)
}

// Cleanup performs cleanup of all resources
func (r *CompositionRoot) Cleanup() error {
	if r.Client != nil {
		r.Client.Close()
	}

	if r.Logger != nil {
		if err := r.Logger.Sync(); err != nil {
			return fmt.Errorf("failed to sync logger: %w", err)
		}
	}
	return nil
}
