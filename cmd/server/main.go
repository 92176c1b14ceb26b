// Package main is the entry point for the tradewarden service: it turns
// proposed trading actions into structured trade requests, validates them
// against the configured risk policy, executes approved trades on the
// exchange, and maintains the append-only trade audit log.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradewarden/internal/clients/binance"
	"tradewarden/internal/clients/coingecko"
	"tradewarden/internal/config"
	"tradewarden/internal/modules/audit"
	"tradewarden/internal/modules/policy"
	policyhandlers "tradewarden/internal/modules/policy/handlers"
	"tradewarden/internal/modules/portfolio"
	portfoliohandlers "tradewarden/internal/modules/portfolio/handlers"
	"tradewarden/internal/modules/trading"
	tradinghandlers "tradewarden/internal/modules/trading/handlers"
	"tradewarden/internal/server"
	"tradewarden/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info"})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	log.Info().
		Str("policy", cfg.Trading.PolicyName).
		Bool("testnet", cfg.Binance.UseTestnet).
		Msg("Starting tradewarden")

	// Clients are constructed once here and injected into each component; no
	// process-wide singletons.
	exchange := binance.NewClient(
		cfg.Binance.APIKey,
		cfg.Binance.SecretKey,
		log,
		binance.WithTestnet(cfg.Binance.UseTestnet),
		binance.WithTimeout(cfg.Binance.Timeout),
	)
	prices := coingecko.NewClient(
		log,
		coingecko.WithBaseURL(cfg.CoinGecko.BaseURL),
		coingecko.WithTimeout(cfg.CoinGecko.Timeout),
	)

	auditLog, err := audit.Open(cfg.Trading.TradeLogPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open audit log")
	}
	defer auditLog.Close()

	policies := policy.NewLoader(cfg.Trading.PolicyDir, log)
	if _, err := policies.Load(cfg.Trading.PolicyName); err != nil {
		log.Fatal().Err(err).Msg("Active policy is not loadable")
	}

	valuator := portfolio.NewValuator(exchange, prices, cfg.KnownAssets, cfg.Trading.StableAsset, log)
	builder := trading.NewBuilder(valuator, auditLog, log)
	engine := policy.NewEngine(log)
	executor := trading.NewExecutor(exchange, auditLog, cfg.Trading.QuotePairSuffix, log)
	pipeline := trading.NewService(builder, engine, policies, cfg.Trading.PolicyName, executor, auditLog, log)

	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		Portfolio: portfoliohandlers.NewPortfolioHandlers(valuator, log),
		Policy:    policyhandlers.NewPolicyHandlers(policies, pipeline.PolicyName(), log),
		Trading:   tradinghandlers.NewTradingHandlers(pipeline, auditLog, log),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("Server failed")
		}
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Stopped")
}
