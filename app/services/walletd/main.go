package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/gonano/wallet/app/services/walletd/handlers"
	"github.com/gonano/wallet/business/core/wallet"
	"github.com/gonano/wallet/foundation/events"
	"github.com/gonano/wallet/foundation/logger"
	"github.com/gonano/wallet/foundation/nano/address"
	"github.com/gonano/wallet/foundation/nano/amount"
	"github.com/gonano/wallet/foundation/nano/rpc"
	"github.com/gonano/wallet/foundation/nano/websock"
	"github.com/gonano/wallet/foundation/nano/work"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("WALLETD")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			APIHost         string        `conf:"default:0.0.0.0:7070"`
		}
		Node struct {
			RPCURL       string `conf:"default:http://localhost:7076"`
			WebsocketURL string `conf:"default:ws://localhost:7078"`
		}
		Wallet struct {
			SeedFile         string        `conf:"default:zwallet/private.seed"`
			Representative   string        `conf:"default:nano_3caprkc56ebsaakn4j4n7g9p8h358mycfjcyzkrfw1nai6prbyk8ihc5yjjk"`
			ReceiveThreshold string        `conf:"default:1000000000000000000000000"`
			PollInterval     time.Duration `conf:"default:1m"`
			WorkMultiplier   float64       `conf:"default:1"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	const prefix = "WALLETD"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Wallet Support

	seedData, err := os.ReadFile(cfg.Wallet.SeedFile)
	if err != nil {
		return fmt.Errorf("unable to load wallet seed: %w", err)
	}
	key, err := wallet.KeyFromSeed(strings.TrimSpace(string(seedData)))
	if err != nil {
		return fmt.Errorf("unable to parse wallet seed: %w", err)
	}

	representative, err := address.Parse(cfg.Wallet.Representative)
	if err != nil {
		return fmt.Errorf("parsing representative: %w", err)
	}

	threshold, err := amount.FromRaw(cfg.Wallet.ReceiveThreshold)
	if err != nil {
		return fmt.Errorf("parsing receive threshold: %w", err)
	}

	// The wallet packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client connected into the system through the events package.
	evts := events.New()
	defer evts.Shutdown()

	traceID := uuid.NewString()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", traceID)
		evts.Send(traceID, s)
	}

	node := rpc.New(cfg.Node.RPCURL)

	version, err := node.Version(context.Background())
	if err != nil {
		return fmt.Errorf("unable to reach node at %s: %w", cfg.Node.RPCURL, err)
	}
	log.Infow("startup", "status", "node connected", "vendor", version.NodeVendor, "network", version.Network)

	generator := work.NewGenerator(work.CPUBackend{}, work.LivePolicy())
	defer generator.Shutdown()

	account, err := wallet.New(wallet.Config{
		PrivateKey:            key,
		Node:                  node,
		Work:                  generator,
		WorkMultiplier:        cfg.Wallet.WorkMultiplier,
		DefaultRepresentative: representative,
		EvHandler:             ev,
	})
	if err != nil {
		return fmt.Errorf("constructing wallet account: %w", err)
	}

	log.Infow("startup", "status", "wallet ready", "account", account.Address())

	// =========================================================================
	// Auto Receive Support

	recvCtx, recvCancel := context.WithCancel(context.Background())
	defer recvCancel()

	// Receive anything already waiting before the watchers start.
	go autoReceive(recvCtx, log, account, threshold)

	go watchConfirmations(recvCtx, log, cfg.Node.WebsocketURL, account, threshold)
	go pollPending(recvCtx, log, account, threshold, cfg.Wallet.PollInterval)

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	apiMux := handlers.APIMux(handlers.MuxConfig{
		Build:   build,
		Log:     log,
		Account: account,
		Evts:    evts,
	})

	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      apiMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Infow("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		recvCancel()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// =============================================================================

// autoReceive pulls in everything pending for the account.
func autoReceive(ctx context.Context, log *zap.SugaredLogger, account *wallet.Account, threshold amount.Amount) {
	published, err := account.ReceiveAll(ctx, threshold)
	if err != nil {
		log.Errorw("autoreceive", "ERROR", err)
		return
	}
	if len(published) > 0 {
		log.Infow("autoreceive", "status", "received pending funds", "blocks", len(published))
	}
}

// watchConfirmations subscribes to the node's confirmation stream and
// triggers a receive whenever funds are sent to the account. The
// subscription is re-dialed with a backoff when the connection drops.
func watchConfirmations(ctx context.Context, log *zap.SugaredLogger, url string, account *wallet.Account, threshold amount.Amount) {
	if url == "" {
		return
	}

	const redialWait = 5 * time.Second

	for ctx.Err() == nil {
		client, err := websock.Dial(ctx, url)
		if err != nil {
			log.Errorw("watch", "ERROR", err)
			select {
			case <-time.After(redialWait):
				continue
			case <-ctx.Done():
				return
			}
		}

		// Unblock any pending read when the context is cancelled.
		go func() {
			<-ctx.Done()
			client.Close()
		}()

		if err := client.SubscribeConfirmations([]address.Address{account.Address()}); err != nil {
			log.Errorw("watch", "ERROR", err)
			client.Close()
			continue
		}
		log.Infow("watch", "status", "confirmation stream connected", "url", url)

		for {
			conf, err := client.Next()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Errorw("watch", "ERROR", err)
				break
			}

			if conf.SendTo(account.Address()) {
				log.Infow("watch", "status", "incoming send confirmed", "hash", conf.Hash)
				autoReceive(ctx, log, account, threshold)
			}
		}
	}
}

// pollPending is the fallback path when the websocket stream is down or the
// node does not offer one.
func pollPending(ctx context.Context, log *zap.SugaredLogger, account *wallet.Account, threshold amount.Amount, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			autoReceive(ctx, log, account, threshold)
		case <-ctx.Done():
			return
		}
	}
}
