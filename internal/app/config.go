package app

import "github.com/dinerolabs/solstore/internal/proxy"

// Config описывает настройки запуска витрины.
type Config struct {
	// HTTPAddr — адрес основного сервера: storefront API, прокси
	// провайдера печати и почтовый мост.
	HTTPAddr string
	// MetricsAddr — адрес сервера метрик и health checks.
	MetricsAddr string
	// SelfBaseURL — адрес, по которому внутренние клиенты (fulfillment,
	// каталог, отправка чеков) ходят к собственному HTTP-серверу.
	SelfBaseURL string
	// DataDir — каталог файлового хранилища покупателя.
	DataDir string

	// SolanaRPCURL — RPC-узел сети; пустое значение означает devnet.
	SolanaRPCURL string
	// StoreWallet — публичный адрес кошелька магазина (получатель переводов).
	StoreWallet string
	// PayerKey — приватный ключ кошелька плательщика в base58 (headless-режим).
	// Без него чекаут через API недоступен, остальные сервисы работают.
	PayerKey string

	// PrintifyAPIKey — серверный ключ провайдера печати.
	PrintifyAPIKey string
	// PrintifyShopID — идентификатор магазина у провайдера.
	PrintifyShopID string

	// PriceAPIURL — базовый адрес API котировок; пустое значение означает
	// публичный CoinGecko.
	PriceAPIURL string

	// SMTP — сервер исходящей почты для моста.
	SMTP proxy.SMTPConfig
	// EmailCostSOL — цена одного письма в SOL.
	EmailCostSOL string
	// MailFromName — имя отправителя в письмах с чеками.
	MailFromName string
}

// DefaultConfig возвращает базовые адреса и значения по умолчанию.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:     ":3001",
		MetricsAddr:  ":9090",
		SelfBaseURL:  "http://localhost:3001",
		DataDir:      "data",
		EmailCostSOL: "0.001",
		MailFromName: "SOL Store",
	}
}
