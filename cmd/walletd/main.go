// ABOUTME: Walletd keeps connection state warm for dashboards: it watches the
// ABOUTME: session store and refreshes balances and market prices on a timer.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/demos-labs/walletkit/demos"
	"github.com/demos-labs/walletkit/market"
	"github.com/demos-labs/walletkit/wallet"
)

const marketPricesKey = "market_prices"

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".walletkit", "session.json")
	}
	return filepath.Join(home, ".walletkit", "session.json")
}

func main() {
	store := flag.String("store", defaultStorePath(), "path to session store file")
	rpc := flag.String("rpc", "", "node RPC URL (default: network default)")
	network := flag.String("network", string(demos.Testnet), "mainnet or testnet")
	refreshEvery := flag.Duration("refresh", 30*time.Second, "balance refresh interval")
	pricesEvery := flag.Duration("prices", 5*time.Minute, "market price refresh interval")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Parse()

	logger, err := newLogger(*debug)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(logger, *store, *rpc, demos.Network(*network), *refreshEvery, *pricesEvery); err != nil {
		logger.Fatal("walletd exited", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(logger *zap.Logger, storePath, rpcURL string, network demos.Network, refreshEvery, pricesEvery time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(storePath), 0o750); err != nil {
		return err
	}
	storage, err := wallet.OpenFileStorage(storePath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.Close()
	}()

	sess, err := wallet.NewSessionStore(storage, nil, "")
	if err != nil {
		return err
	}
	defer func() {
		_ = sess.Close()
	}()

	if rpcURL == "" {
		rpcURL = demos.ConfigFor(network).RPCURL
	}
	client := demos.NewClient(demos.ClientConfig{BaseURL: rpcURL})

	// Session changes can come from any process sharing the store file.
	unsubscribe := sess.Subscribe(func(rec wallet.SessionRecord) {
		if rec.Connected {
			logger.Info("wallet connected", zap.String("address", demos.ShortenAddress(rec.Address, 4)))
		} else {
			logger.Info("wallet disconnected")
		}
	})
	defer unsubscribe()

	logger.Info("walletd started",
		zap.String("store", storePath),
		zap.String("rpc", rpcURL),
		zap.Duration("refresh", refreshEvery),
	)

	go priceLoop(ctx, logger, storage, pricesEvery)

	ticker := time.NewTicker(refreshEvery)
	defer ticker.Stop()

	refreshBalance(ctx, logger, client, sess, storage)
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case <-ticker.C:
			refreshBalance(ctx, logger, client, sess, storage)
		}
	}
}

// refreshBalance pulls account state from the node and caches it for
// dashboard reads. Node outages are logged and retried next tick.
func refreshBalance(ctx context.Context, logger *zap.Logger, client *demos.Client, sess *wallet.SessionStore, storage wallet.Storage) {
	rec := sess.Current()
	if !rec.Connected {
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	balance, err := wallet.WithRetry(callCtx, wallet.DefaultRetryConfig(), "get balance", func() (string, error) {
		return client.GetBalance(callCtx, rec.Address)
	})
	if err != nil {
		logger.Warn("balance refresh failed", zap.Error(err))
		return
	}
	nonce, err := client.GetNonce(callCtx, rec.Address)
	if err != nil {
		logger.Warn("nonce refresh failed", zap.Error(err))
		return
	}

	if err := demos.SaveCachedAccount(storage, demos.Account{
		Address: rec.Address,
		Balance: balance,
		Nonce:   nonce,
	}); err != nil {
		logger.Error("cache write failed", zap.Error(err))
		return
	}
	logger.Debug("account refreshed",
		zap.String("balance", demos.FormatDEMOS(balance)),
		zap.Uint64("nonce", nonce),
	)
}

// priceLoop refreshes the market price board independently of wallet state.
// Price data is decorative; failures never affect balance refreshes.
func priceLoop(ctx context.Context, logger *zap.Logger, storage wallet.Storage, every time.Duration) {
	gecko := market.NewCoinGecko()

	refresh := func() {
		callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		rows := gecko.TokenPrices(callCtx, nil)
		if len(rows) == 0 {
			logger.Debug("no price data this cycle")
			return
		}
		data, err := json.Marshal(rows)
		if err != nil {
			logger.Error("marshal prices", zap.Error(err))
			return
		}
		if err := storage.Set(marketPricesKey, string(data)); err != nil {
			logger.Error("cache prices", zap.Error(err))
			return
		}
		logger.Debug("prices refreshed", zap.Int("coins", len(rows)))
	}

	refresh()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}
