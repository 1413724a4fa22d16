package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/tripwise/internal/app"
	"github.com/MrJamesThe3rd/tripwise/internal/config"
	tripwiseHttp "github.com/MrJamesThe3rd/tripwise/internal/http"
	authHandler "github.com/MrJamesThe3rd/tripwise/internal/http/auth"
	exportHandler "github.com/MrJamesThe3rd/tripwise/internal/http/export"
	policyHandler "github.com/MrJamesThe3rd/tripwise/internal/http/policy"
	quoteHandler "github.com/MrJamesThe3rd/tripwise/internal/http/quote"
	txHandler "github.com/MrJamesThe3rd/tripwise/internal/http/transaction"
	wizardHandler "github.com/MrJamesThe3rd/tripwise/internal/http/wizard"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	handlers := tripwiseHttp.Handlers{
		Auth:         authHandler.NewHandler(a.Auth, a.Tokens, a.Wizard, a.Metrics),
		Quote:        quoteHandler.NewHandler(a.Calculator, a.Metrics),
		Wizard:       wizardHandler.NewHandler(a.Wizard, a.Metrics),
		Policies:     policyHandler.NewHandler(a.Policies, a.Documents, a.Calculator, a.Metrics),
		Transactions: txHandler.NewHandler(a.Transactions),
		Export:       exportHandler.NewHandler(a.Export),
	}

	router := tripwiseHttp.New(tripwiseHttp.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		Metrics:     a.Metrics,
		RequireAuth: authHandler.RequireToken(a.Tokens, a.Auth),
	}, handlers)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "app", cfg.App.Name, "port", port, "store", cfg.Store.Driver)

	server := &http.Server{
		Addr:         port,
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	if err := server.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
