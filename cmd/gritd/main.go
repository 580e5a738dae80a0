// Command gritd serves one or more grit repositories over HTTP: smart-HTTP
// git transport, a JSON/RPC control API, and static UI assets. It takes no
// flags; every setting comes from the environment (see internal/config).
package main

import (
	"log/slog"
	"os"

	"github.com/rsgalloway/grit/internal/config"
	"github.com/rsgalloway/grit/internal/httpd"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	app := httpd.BuildApp(cfg)
	app.Logger().Info("gritd starting",
		slog.String("addr", cfg.Addr()),
		slog.String("content_root", cfg.ContentRoot),
		slog.String("static_dir", cfg.StaticDir),
	)

	if err := app.Listen(cfg.Addr()); err != nil {
		app.Logger().Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}
