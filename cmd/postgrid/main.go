package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"postgrid/internal/api"
	"postgrid/internal/config"
	"postgrid/internal/server"
	"postgrid/internal/tui"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	args := os.Args[1:]
	if len(args) > 0 && args[0] == "serve" {
		runServe(cfg)
		return
	}

	fs := flag.NewFlagSet("postgrid", flag.ExitOnError)
	open := fs.String("open", "", "load one post directly by slug, skipping the feed")
	if err := fs.Parse(args); err != nil {
		log.Fatalf("flag error: %v", err)
	}

	client := api.NewClient(cfg.APIBaseURL, nil)
	model := tui.NewModel(client, tui.Options{
		RowHeight:       cfg.RowHeight,
		Overscan:        cfg.Overscan,
		TriggerDistance: cfg.TriggerDistance,
		FreshFor:        cfg.FreshFor,
		DirectSlug:      *open,
	})

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus())
	if _, err := program.Run(); err != nil {
		log.Fatalf("tui error: %v", err)
	}
}

func runServe(cfg config.Config) {
	repo, err := server.NewRepository("")
	if err != nil {
		log.Fatalf("repository init error: %v", err)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := repo.Init(ctx); err != nil {
		log.Fatalf("repository schema error: %v", err)
	}
	if err := repo.SeedDemo(ctx, 60); err != nil {
		log.Fatalf("seed error: %v", err)
	}

	srv := server.New(repo, 12)
	log.Printf("demo server listening on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
