package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/dinerolabs/solstore/internal/chain"
	"github.com/dinerolabs/solstore/internal/domain"
	healthcheck "github.com/dinerolabs/solstore/internal/health"
	"github.com/dinerolabs/solstore/internal/metrics"
	"github.com/dinerolabs/solstore/internal/proxy"
	"github.com/dinerolabs/solstore/internal/service/catalog"
	"github.com/dinerolabs/solstore/internal/service/checkout"
	"github.com/dinerolabs/solstore/internal/service/fulfillment"
	"github.com/dinerolabs/solstore/internal/service/notify"
	"github.com/dinerolabs/solstore/internal/service/payment"
	"github.com/dinerolabs/solstore/internal/service/pricing"
	"github.com/dinerolabs/solstore/internal/storage/file"
	"github.com/dinerolabs/solstore/internal/storage/memory"
	"github.com/dinerolabs/solstore/internal/version"
)

// Run собирает витрину и держит её до отмены контекста.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	store, err := file.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open local store: %w", err)
	}
	timeline := memory.NewTimeline()

	chainClient := chain.NewClient(cfg.SolanaRPCURL)

	breaker := pricing.NewBreaker(5, 30*time.Second, log.WithField("component", "breaker"))
	oracle := pricing.NewOracle(
		pricing.NewCoinGeckoSource(cfg.PriceAPIURL, nil),
		log.WithField("component", "pricing"),
		pricing.WithBreaker(breaker),
	)
	go oracle.RunRefresher(ctx, 0)

	checkoutMetrics := metrics.NewCheckoutMetrics()

	requester := fulfillment.NewRequester(cfg.SelfBaseURL, cfg.PrintifyShopID, nil,
		log.WithField("component", "fulfillment"))
	mailer := notify.NewReceiptMailer(cfg.SelfBaseURL, cfg.MailFromName, cfg.StoreWallet, nil,
		log.WithField("component", "notify"))

	// Чекаут через API доступен только с настроенным кошельком плательщика;
	// прокси, мост и каталог работают в любом случае.
	var orchestrator *checkout.Orchestrator
	if cfg.PayerKey != "" {
		storeWallet, err := solana.PublicKeyFromBase58(cfg.StoreWallet)
		if err != nil {
			return fmt.Errorf("parse store wallet address: %w", err)
		}
		wallet, err := chain.NewLocalWallet(cfg.PayerKey)
		if err != nil {
			return err
		}
		submitter := payment.NewSubmitter(chainClient, wallet, storeWallet,
			log.WithField("component", "payment"))

		orchestrator = checkout.NewOrchestrator(checkout.Deps{
			Rates:       oracle,
			Payments:    submitter,
			Fulfillment: requester,
			Orders:      store,
			Cart:        store,
			Timeline:    timeline,
			Notifier:    mailer,
			Metrics:     checkoutMetrics,
			Logger:      log.WithField("component", "checkout"),
		})
	} else {
		logger.Warn("payer key is not configured, checkout endpoint disabled")
	}

	catalogClient := catalog.NewClient(cfg.SelfBaseURL, cfg.PrintifyShopID, nil,
		log.WithField("component", "catalog"))

	printifyProxy := proxy.NewPrintify(cfg.PrintifyAPIKey, "", nil,
		log.WithField("component", "printify_proxy"))
	bridge := proxy.NewMailBridge(chainClient, proxy.NewSMTPSender(cfg.SMTP), cfg.EmailCostSOL,
		log.WithField("component", "mail_bridge"))

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.Register("chain", func(ctx context.Context) error {
		_, err := chainClient.GetBlockHeight(ctx)
		return err
	})
	healthHandler.Register("pricing", func(ctx context.Context) error {
		if breaker.State() == pricing.BreakerOpen {
			return fmt.Errorf("%w: rate source breaker is open", healthcheck.ErrDegraded)
		}
		if _, err := oracle.Rate(ctx); errors.Is(err, domain.ErrRateUnavailable) {
			return err
		}
		return nil
	})

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	storefront := &api{
		store:        store,
		catalog:      catalogClient,
		orchestrator: orchestrator,
		logger:       log.WithField("component", "api"),
	}

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		r.Mount("/printify", printifyProxy.Routes())
		storefront.register(r)
		r.Mount("/", bridge.Routes())
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP сервер витрины слушает %s", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(srv, logger)
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics и health checks.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
