package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/dinerolabs/solstore/internal/app"
)

// setupLogger настраивает формат и уровень логирования для витрины.
func setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	if os.Getenv("STORE_DEBUG") != "" {
		log.SetLevel(log.DebugLevel)
	}
}

// readConfig формирует конфигурацию приложения из переменных окружения.
func readConfig() app.Config {
	cfg := app.DefaultConfig()
	if v := os.Getenv("STORE_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("STORE_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("STORE_SELF_BASE_URL"); v != "" {
		cfg.SelfBaseURL = v
	}
	if v := os.Getenv("STORE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("STORE_SOLANA_RPC_URL"); v != "" {
		cfg.SolanaRPCURL = v
	}
	if v := os.Getenv("STORE_WALLET_ADDRESS"); v != "" {
		cfg.StoreWallet = v
	}
	if v := os.Getenv("STORE_PAYER_KEY"); v != "" {
		cfg.PayerKey = v
	}
	if v := os.Getenv("STORE_PRINTIFY_API_KEY"); v != "" {
		cfg.PrintifyAPIKey = v
	}
	if v := os.Getenv("STORE_PRINTIFY_SHOP_ID"); v != "" {
		cfg.PrintifyShopID = v
	}
	if v := os.Getenv("STORE_PRICE_API_URL"); v != "" {
		cfg.PriceAPIURL = v
	}
	if v := os.Getenv("STORE_EMAIL_COST_SOL"); v != "" {
		cfg.EmailCostSOL = v
	}
	if v := os.Getenv("STORE_MAIL_FROM_NAME"); v != "" {
		cfg.MailFromName = v
	}
	cfg.SMTP.Host = os.Getenv("STORE_SMTP_HOST")
	cfg.SMTP.Port = os.Getenv("STORE_SMTP_PORT")
	cfg.SMTP.Username = os.Getenv("STORE_SMTP_USERNAME")
	cfg.SMTP.Password = os.Getenv("STORE_SMTP_PASSWORD")
	cfg.SMTP.From = os.Getenv("STORE_SMTP_FROM")
	return cfg
}

func main() {
	setupLogger()
	cfg := readConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_addr":    cfg.HTTPAddr,
		"metrics_addr": cfg.MetricsAddr,
	}).Info("запускаем витрину")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("витрина остановлена")
}
