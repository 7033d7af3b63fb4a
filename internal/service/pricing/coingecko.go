package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// DefaultCoinGeckoURL — базовый адрес публичного API котировок.
const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// CoinGeckoSource получает цену SOL в долларах из CoinGecko.
type CoinGeckoSource struct {
	baseURL string
	client  *http.Client
}

// NewCoinGeckoSource создаёт источник курса поверх переданного HTTP-клиента.
func NewCoinGeckoSource(baseURL string, client *http.Client) *CoinGeckoSource {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &CoinGeckoSource{baseURL: baseURL, client: client}
}

// Fetch делает один запрос к simple/price и декодирует ответ.
func (s *CoinGeckoSource) Fetch(ctx context.Context) (decimal.Decimal, error) {
	url := s.baseURL + "/simple/price?ids=solana&vs_currencies=usd"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("price api returned status %d", resp.StatusCode)
	}

	var payload struct {
		Solana struct {
			USD decimal.Decimal `json:"usd"`
		} `json:"solana"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, err
	}
	if !payload.Solana.USD.IsPositive() {
		return decimal.Zero, fmt.Errorf("invalid price data received")
	}

	return payload.Solana.USD, nil
}

var _ Source = (*CoinGeckoSource)(nil)
