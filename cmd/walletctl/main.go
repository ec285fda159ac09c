package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/demos-labs/walletkit/demos"
	"github.com/demos-labs/walletkit/market"
	"github.com/demos-labs/walletkit/social"
	"github.com/demos-labs/walletkit/wallet"
)

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
		return
	}
	switch os.Args[1] {
	case "init":
		if err := cmdInit(os.Args[2:]); err != nil {
			log.Fatal(err)
		}
	case "generate":
		if err := cmdGenerate(os.Args[2:]); err != nil {
			log.Fatal(err)
		}
	case "import":
		if err := cmdImport(os.Args[2:]); err != nil {
			log.Fatal(err)
		}
	case "status":
		if err := cmdStatus(os.Args[2:]); err != nil {
			log.Fatal(err)
		}
	case "reveal":
		if err := cmdReveal(os.Args[2:]); err != nil {
			log.Fatal(err)
		}
	case "disconnect":
		if err := cmdDisconnect(os.Args[2:]); err != nil {
			log.Fatal(err)
		}
	case "balance":
		if err := cmdBalance(os.Args[2:]); err != nil {
			log.Fatal(err)
		}
	case "send":
		if err := cmdSend(os.Args[2:]); err != nil {
			log.Fatal(err)
		}
	case "history":
		if err := cmdHistory(os.Args[2:]); err != nil {
			log.Fatal(err)
		}
	case "social":
		if err := cmdSocial(os.Args[2:]); err != nil {
			log.Fatal(err)
		}
	case "prices":
		if err := cmdPrices(os.Args[2:]); err != nil {
			log.Fatal(err)
		}
	case "trending":
		if err := cmdTrending(os.Args[2:]); err != nil {
			log.Fatal(err)
		}
	case "pools":
		if err := cmdPools(os.Args[2:]); err != nil {
			log.Fatal(err)
		}
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "walletctl commands: init | generate | import | status | reveal | disconnect | balance | send | history | social | prices | trending | pools\n")
}

func mustParse(args []string, fs *flag.FlagSet) {
	if err := fs.Parse(args); err != nil {
		log.Fatal(err)
	}
}

var errNoWallet = fmt.Errorf("no wallet connected")

// require is for flag validation only, before any resources are open;
// inside withSession callbacks return an error so deferred closes run.
func require(cond bool, msg string) {
	if !cond {
		log.Fatal(msg)
	}
}

// withSession opens storage and session store from config, runs fn, and
// closes both in order.
func withSession(fn func(*Config, *wallet.SessionStore, wallet.Storage) error) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DB), 0o750); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	storage, err := wallet.OpenSQLiteStorage(cfg.DB)
	if err != nil {
		return fmt.Errorf("open wallet db: %w", err)
	}
	sess, err := wallet.NewSessionStore(storage, nil, "")
	if err != nil {
		_ = storage.Close()
		return err
	}
	var closeErr error
	defer func() {
		if cerr := sess.Close(); cerr != nil && closeErr == nil {
			closeErr = cerr
		}
		if cerr := storage.Close(); cerr != nil && closeErr == nil {
			closeErr = cerr
		}
	}()
	if err := fn(cfg, sess, storage); err != nil {
		return err
	}
	return closeErr
}

func nodeClient(cfg *Config) *demos.Client {
	return demos.NewClient(demos.ClientConfig{BaseURL: cfg.RPCURL()})
}

func cmdInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "overwrite existing config")
	mustParse(args, fs)

	if ConfigExists() && !*force {
		return fmt.Errorf("config already exists at %s (use -force to recreate)", ConfigPath())
	}
	_, err := InitConfig()
	return err
}

func cmdGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	mustParse(args, fs)

	return withSession(func(cfg *Config, sess *wallet.SessionStore, _ wallet.Storage) error {
		if sess.Current().Connected {
			return fmt.Errorf("a wallet is already connected; run 'walletctl disconnect' first")
		}
		id, phrase, err := wallet.NewMnemonic()
		if err != nil {
			return err
		}
		if err := sess.Connect(id.Address, "", phrase); err != nil {
			return err
		}
		fmt.Println("Wallet created.")
		fmt.Printf("Address: %s\n", id.Address)
		fmt.Println("\nRecovery phrase (write it down, it is shown once):")
		fmt.Println("  " + phrase)
		return nil
	})
}

func cmdImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	phraseFlag := fs.String("phrase", "", "12-word recovery phrase (omit to read from stdin)")
	mustParse(args, fs)

	pasted := *phraseFlag
	if pasted == "" {
		fmt.Fprint(os.Stderr, "Enter recovery phrase: ")
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			return fmt.Errorf("read phrase: %w", scanner.Err())
		}
		pasted = scanner.Text()
	}

	words := wallet.AutoArrange(pasted)
	if words == nil {
		words = wallet.SplitMnemonic(pasted)
	}

	return withSession(func(cfg *Config, sess *wallet.SessionStore, _ wallet.Storage) error {
		id, phrase, err := wallet.ImportMnemonic(words)
		if err != nil {
			return err
		}
		if err := sess.Connect(id.Address, "", phrase); err != nil {
			return err
		}
		fmt.Println("Wallet imported.")
		fmt.Printf("Address: %s\n", id.Address)
		return nil
	})
}

func cmdStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	mustParse(args, fs)

	return withSession(func(cfg *Config, sess *wallet.SessionStore, storage wallet.Storage) error {
		rec := sess.Current()
		if !rec.HasConnectedAccounts() {
			fmt.Println("No wallet connected.")
			return nil
		}
		fmt.Printf("Network: %s\n", cfg.Network)
		fmt.Printf("Address: %s\n", rec.Address)
		if rec.DemosAddress != "" {
			fmt.Printf("Demos address: %s\n", rec.DemosAddress)
		}
		if cached, ok, err := demos.LoadCachedAccount(storage); err == nil && ok {
			fmt.Printf("Balance: %s DEMOS (as of %s)\n",
				demos.FormatDEMOS(cached.Account.Balance),
				time.Unix(cached.UpdatedAt, 0).UTC().Format(time.RFC3339))
			fmt.Printf("Nonce: %d\n", cached.Account.Nonce)
		}
		return nil
	})
}

func cmdReveal(args []string) error {
	fs := flag.NewFlagSet("reveal", flag.ExitOnError)
	yes := fs.Bool("yes", false, "skip confirmation")
	mustParse(args, fs)

	return withSession(func(cfg *Config, sess *wallet.SessionStore, _ wallet.Storage) error {
		if !*yes {
			fmt.Fprint(os.Stderr, "This prints your recovery phrase in plain text. Continue? [y/N] ")
			scanner := bufio.NewScanner(os.Stdin)
			if !scanner.Scan() || !strings.EqualFold(strings.TrimSpace(scanner.Text()), "y") {
				fmt.Fprintln(os.Stderr, "aborted")
				return nil
			}
		}
		phrase, err := sess.RevealMnemonic()
		if err != nil {
			return err
		}
		fmt.Println(phrase)
		return nil
	})
}

func cmdDisconnect(args []string) error {
	fs := flag.NewFlagSet("disconnect", flag.ExitOnError)
	mustParse(args, fs)

	return withSession(func(cfg *Config, sess *wallet.SessionStore, storage wallet.Storage) error {
		if err := sess.Disconnect(); err != nil {
			return err
		}
		if err := demos.ClearCachedAccount(storage); err != nil {
			return err
		}
		fmt.Println("Disconnected.")
		return nil
	})
}

func cmdBalance(args []string) error {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	mustParse(args, fs)

	return withSession(func(cfg *Config, sess *wallet.SessionStore, storage wallet.Storage) error {
		rec := sess.Current()
		if !rec.Connected {
			return errNoWallet
		}

		client := nodeClient(cfg)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Balance reads are idempotent, safe to retry.
		balance, err := wallet.WithRetry(ctx, wallet.DefaultRetryConfig(), "get balance", func() (string, error) {
			return client.GetBalance(ctx, rec.Address)
		})
		if err != nil {
			return err
		}
		nonce, err := wallet.WithRetry(ctx, wallet.DefaultRetryConfig(), "get nonce", func() (uint64, error) {
			return client.GetNonce(ctx, rec.Address)
		})
		if err != nil {
			return err
		}

		if err := demos.SaveCachedAccount(storage, demos.Account{
			Address: rec.Address,
			Balance: balance,
			Nonce:   nonce,
		}); err != nil {
			return err
		}

		fmt.Printf("%s DEMOS\n", demos.FormatDEMOS(balance))
		return nil
	})
}

func cmdSend(args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	to := fs.String("to", "", "recipient address")
	amount := fs.String("amount", "", "amount in DEMOS (e.g. 1.5)")
	mustParse(args, fs)

	require(*to != "", "-to required")
	require(*amount != "", "-amount required")

	return withSession(func(cfg *Config, sess *wallet.SessionStore, _ wallet.Storage) error {
		rec := sess.Current()
		if !rec.Connected {
			return errNoWallet
		}

		value, err := demos.ParseDEMOS(*amount)
		if err != nil {
			return err
		}

		client := nodeClient(cfg)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		nonce, err := client.GetNonce(ctx, rec.Address)
		if err != nil {
			return err
		}

		// Broadcast is never retried: a timeout does not prove the
		// transaction failed to land.
		receipt, err := client.SendTransaction(ctx, demos.Tx{
			From:  rec.Address,
			To:    *to,
			Value: value,
			Nonce: nonce,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Sent %s DEMOS to %s\n", demos.FormatDEMOS(value), demos.ShortenAddress(*to, 4))
		fmt.Printf("Hash: %s\n", receipt.Hash)
		fmt.Println(demos.ExplorerTxURL(demos.Network(cfg.Network), receipt.Hash))
		return nil
	})
}

func cmdHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("limit", 25, "maximum transactions to display")
	mustParse(args, fs)

	return withSession(func(cfg *Config, sess *wallet.SessionStore, _ wallet.Storage) error {
		rec := sess.Current()
		if !rec.Connected {
			return errNoWallet
		}

		client := nodeClient(cfg)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		txs, err := wallet.WithRetry(ctx, wallet.DefaultRetryConfig(), "get history", func() ([]demos.Receipt, error) {
			return client.GetTransactionHistory(ctx, rec.Address, *limit)
		})
		if err != nil {
			return err
		}
		if len(txs) == 0 {
			fmt.Println("no transactions found")
			return nil
		}
		for _, tx := range txs {
			dir := "->"
			if strings.EqualFold(tx.To, rec.Address) {
				dir = "<-"
			}
			fmt.Printf("%s %s %s %s DEMOS\n", tx.Hash, dir, demos.ShortenAddress(tx.To, 4), demos.FormatDEMOS(tx.Value))
		}
		return nil
	})
}

func cmdSocial(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: walletctl social connect|disconnect|list [platform]")
	}

	return withSession(func(cfg *Config, sess *wallet.SessionStore, storage wallet.Storage) error {
		svc := social.NewService(social.ConfigFromEnv(), storage, nil)

		switch args[0] {
		case "connect":
			if len(args) < 2 {
				return fmt.Errorf("usage: walletctl social connect <platform>")
			}
			platform := social.Platform(args[1])
			if platform == social.Telegram {
				u, _, err := svc.AuthURL(platform)
				if err != nil {
					return err
				}
				fmt.Println("Open the Telegram login widget:")
				fmt.Println("  " + u)
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			conn, err := svc.Initiate(ctx, platform)
			if err != nil {
				return err
			}
			fmt.Printf("Connected %s as %s\n", conn.Platform, conn.Username)
			return nil
		case "disconnect":
			if len(args) < 2 {
				return fmt.Errorf("usage: walletctl social disconnect <platform>")
			}
			if err := svc.Connections().Disconnect(social.Platform(args[1])); err != nil {
				return err
			}
			fmt.Printf("Disconnected %s\n", args[1])
			return nil
		case "list":
			all, err := svc.Connections().All()
			if err != nil {
				return err
			}
			if len(all) == 0 {
				fmt.Println("no connections")
				return nil
			}
			for platform, conn := range all {
				fmt.Printf("%s\t%s\t%s\n", platform, conn.Username, conn.ProfileURL)
			}
			return nil
		default:
			return fmt.Errorf("unknown social command %q", args[0])
		}
	})
}

func cmdPrices(args []string) error {
	fs := flag.NewFlagSet("prices", flag.ExitOnError)
	ids := fs.String("ids", "", "comma-separated CoinGecko coin IDs")
	mustParse(args, fs)

	var coinIDs []string
	if *ids != "" {
		coinIDs = strings.Split(*ids, ",")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rows := market.NewCoinGecko().TokenPrices(ctx, coinIDs)
	if len(rows) == 0 {
		fmt.Println("no price data available")
		return nil
	}
	for _, row := range rows {
		fmt.Printf("%-10s %12s %8s  cap %s\n",
			strings.ToUpper(row.Symbol),
			market.FormatUSD(row.CurrentPrice),
			market.FormatPercent(row.PriceChangePct24h),
			market.FormatCompact(row.MarketCap))
	}
	return nil
}

func cmdTrending(args []string) error {
	fs := flag.NewFlagSet("trending", flag.ExitOnError)
	mustParse(args, fs)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	coins := market.NewCoinGecko().Trending(ctx)
	if len(coins) == 0 {
		fmt.Println("no trending data available")
		return nil
	}
	for _, c := range coins {
		fmt.Printf("%-10s %s\n", strings.ToUpper(c.Symbol), c.Name)
	}
	return nil
}

func cmdPools(args []string) error {
	fs := flag.NewFlagSet("pools", flag.ExitOnError)
	chain := fs.String("chain", string(market.AaveMainnet), "aave deployment (mainnet, polygon, avalanche)")
	mustParse(args, fs)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pools := market.NewAave(market.AaveChain(*chain)).Pools(ctx)
	if len(pools) == 0 {
		fmt.Println("no pool data available")
		return nil
	}
	for _, p := range pools {
		fmt.Printf("%-8s TVL %-10s util %6.2f%%  supply %5.2f%%  borrow %5.2f%%\n",
			p.Symbol, market.FormatTVL(p.TotalLiquidity), p.UtilizationPct, p.SupplyAPY, p.BorrowAPY)
	}
	return nil
}
