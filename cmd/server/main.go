package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/joho/godotenv"

	"github.com/theBatm4n/SOLANA-API-ENDPOINT/internal/api"
	"github.com/theBatm4n/SOLANA-API-ENDPOINT/internal/ledger"
	"github.com/theBatm4n/SOLANA-API-ENDPOINT/internal/recon"
	"github.com/theBatm4n/SOLANA-API-ENDPOINT/internal/registry"
	"github.com/theBatm4n/SOLANA-API-ENDPOINT/internal/store"
	"github.com/theBatm4n/SOLANA-API-ENDPOINT/pkg/db"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	log := newLogger(os.Getenv("LOG_LEVEL"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	programID, err := solana.PublicKeyFromBase58(os.Getenv("PROGRAM_ID"))
	if err != nil {
		return fmt.Errorf("PROGRAM_ID: %w", err)
	}
	wallet, err := solana.PrivateKeyFromBase58(os.Getenv("WALLET_PRIVATE_KEY"))
	if err != nil {
		return fmt.Errorf("WALLET_PRIVATE_KEY: %w", err)
	}

	rpcURL := os.Getenv("SOLANA_RPC_URL")
	if rpcURL == "" {
		rpcURL = rpc.DevNet_RPC
	}
	cluster := os.Getenv("SOLANA_CLUSTER")
	if cluster == "" {
		cluster = "devnet"
	}
	port := os.Getenv("SERVICE_PORT")
	if port == "" {
		port = "3000"
	}
	interval := 30 * time.Second
	if raw := os.Getenv("RECONCILE_INTERVAL"); raw != "" {
		interval, err = time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("RECONCILE_INTERVAL: %w", err)
		}
	}

	pool, err := db.Connect(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		return err
	}
	defer pool.Close()
	st := store.New(pool)

	lc := ledger.NewRPC(rpcURL, wallet)
	reg := registry.New(st, lc, programID, wallet.PublicKey(), log)
	iss := registry.NewIssuance(st, lc, programID, wallet.PublicKey(), log)
	rc := recon.New(st, programID, wallet.PublicKey(), log)
	go rc.Run(ctx, interval)

	h := api.NewHandler(reg, iss, rc, st, st, cluster, log)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		// Both downstream calls are network-bound; cap the whole request.
		WriteTimeout: 90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "port", port, "rpc", rpcURL, "program", programID.String())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
