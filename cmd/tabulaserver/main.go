// Command tabulaserver runs the tabula REST API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/yourusername/tabula/internal/config"
	"github.com/yourusername/tabula/pkg/api"
	"github.com/yourusername/tabula/pkg/store"
)

const version = "0.1.0"

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	// Command line flags override the environment.
	flag.StringVar(&cfg.Host, "host", cfg.Host, "Host to bind to (use 0.0.0.0 for all interfaces)")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "Port to listen on")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database for saved games (empty disables storage)")
	flag.DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "HTTP read timeout")
	flag.DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "HTTP write timeout (0 for none, needed by long streams)")
	flag.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Log level (debug, info, warn, error)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("tabula API server v%s\n", version)
		os.Exit(0)
	}
	if err := cfg.Validate(); err != nil {
		config.Exitf("Error: %v", err)
	}

	log, err := cfg.Log.Logger()
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	var st *store.Store
	if cfg.DBPath != "" {
		st, err = store.Open(context.Background(), cfg.DBPath)
		if err != nil {
			log.WithError(err).Fatal("failed to open game store")
		}
		defer st.Close()
		log.WithField("path", cfg.DBPath).Info("game store opened")
	}

	server := api.NewServer(st, api.ServerConfig{
		Host:            cfg.Host,
		Port:            cfg.Port,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
		MaxFastWorkers:  cfg.FastWorkers,
		MaxSlowWorkers:  cfg.SlowWorkers,
	}, version, log)

	if err := server.ListenAndServeWithGracefulShutdown(); err != nil {
		log.WithError(err).Error("server error")
		st.Close()
		os.Exit(1)
	}
}
