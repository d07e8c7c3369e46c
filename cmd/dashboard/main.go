// bookmerge-dashboard is a terminal client for the BookMerger RPC service:
// it dials BookSummary and renders the most recent cross-venue snapshot,
// quitting on q/ctrl+c.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"bookmerge/internal/dashboard"
)

func main() {
	addr := "127.0.0.1:50051"
	if a := os.Getenv("BOOKMERGE_ADDR"); a != "" {
		addr = a
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, client, err := dashboard.Dial(addr)
	if err != nil {
		slog.Error("failed to dial book merger", "error", err, "addr", addr)
		os.Exit(1)
	}
	defer conn.Close()

	model := dashboard.NewModel(ctx, client)
	program := tea.NewProgram(model)
	if _, err := program.Run(); err != nil {
		slog.Error("dashboard exited with error", "error", err)
		os.Exit(1)
	}
}
