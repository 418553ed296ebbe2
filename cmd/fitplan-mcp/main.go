package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	fitplan "github.com/claude/fitplan"
	"github.com/claude/fitplan/internal/config"
	fitmcp "github.com/claude/fitplan/internal/mcp"
	"github.com/claude/fitplan/internal/plansource"
	"github.com/claude/fitplan/internal/store"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (local mode)")
	remote := flag.String("remote", "", "fitplan server URL; when set, tools drive a session on that server")
	apiKey := flag.String("api-key", os.Getenv("FITPLAN_AUTH_API_KEY"), "API key for the remote server")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("fitplan-mcp", Version)
		return
	}

	// stdout carries the MCP protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ws fitmcp.Workouts
	if *remote != "" {
		client := fitmcp.NewHTTPClient(*remote, *apiKey)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Close(ctx); err != nil {
				log.Warn("closing remote session failed", "error", err)
			}
		}()
		ws = client
		log.Info("fitplan-mcp starting", "version", Version, "mode", "remote", "server", *remote)
	} else {
		cfg, err := config.Load(*configPath)
		if errors.Is(err, os.ErrNotExist) {
			cfg, err = config.FromEnv()
		}
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}

		src, closer, err := plansource.Open(context.Background(), cfg, fitplan.AssetsFS)
		if err != nil {
			log.Error("failed to open plan source", "source", cfg.Plan.Source, "error", err)
			os.Exit(1)
		}
		defer closer.Close()

		st := store.New(src, log)
		defer st.Close()
		st.Start(context.Background())
		ws = fitmcp.NewLocal(st)
		log.Info("fitplan-mcp starting", "version", Version, "mode", "local", "source", cfg.Plan.Source)
	}

	if err := server.ServeStdio(fitmcp.New(ws, Version, log)); err != nil {
		log.Error("mcp server error", "error", err)
	}
}
