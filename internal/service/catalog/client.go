package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// cacheTTL — время жизни кэша списка товаров.
const cacheTTL = 5 * time.Minute

// defaultPrice подставляется товару без включённых вариантов.
var defaultPrice = decimal.RequireFromString("29.99")

// Variant — вариант товара у провайдера (размер/цвет).
type Variant struct {
	ID int `json:"id"`
	// PriceCents — цена в центах, как её отдаёт провайдер.
	PriceCents int64  `json:"price"`
	Title      string `json:"title"`
	IsEnabled  bool   `json:"is_enabled"`
}

// Product — товар витрины с ценами, пересчитанными в доллары.
type Product struct {
	ID          string
	Title       string
	Description string
	Images      []string
	Variants    []Variant
	// PriceUSD — минимальная цена среди включённых вариантов.
	PriceUSD decimal.Decimal
	// VariantPrices — цена каждого включённого варианта в долларах.
	VariantPrices map[int]decimal.Decimal
}

// Client получает каталог провайдера через прокси и кэширует его.
type Client struct {
	baseURL string
	shopID  string
	http    *http.Client
	logger  *log.Entry

	mu        sync.Mutex
	cached    []Product
	fetchedAt time.Time
}

// NewClient создаёт клиента каталога.
func NewClient(baseURL, shopID string, httpClient *http.Client, logger *log.Entry) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = log.New().WithField("component", "catalog")
	}
	return &Client{baseURL: baseURL, shopID: shopID, http: httpClient, logger: logger}
}

type rawImage struct {
	Src string `json:"src"`
}

type rawProduct struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Images      []rawImage `json:"images"`
	Variants    []Variant  `json:"variants"`
}

// Products возвращает список товаров: свежий кэш как есть, иначе один
// поход к провайдеру.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && time.Since(c.fetchedAt) < cacheTTL {
		return c.cached, nil
	}

	var raw []rawProduct
	path := fmt.Sprintf("/api/printify/shops/%s/products.json", c.shopID)
	if err := c.get(ctx, path, &raw); err != nil {
		return nil, err
	}

	products := make([]Product, 0, len(raw))
	for _, rp := range raw {
		products = append(products, toProduct(rp))
	}

	c.cached = products
	c.fetchedAt = time.Now()
	c.logger.WithField("count", len(products)).Debug("product cache refreshed")
	return products, nil
}

// Product возвращает один товар с точными ценами вариантов.
func (c *Client) Product(ctx context.Context, productID string) (Product, error) {
	var raw rawProduct
	path := fmt.Sprintf("/api/printify/shops/%s/products/%s.json", c.shopID, productID)
	if err := c.get(ctx, path, &raw); err != nil {
		return Product{}, err
	}
	return toProduct(raw), nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog request %s returned status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// toProduct пересчитывает центы в доллары и выбирает минимальную цену
// среди включённых вариантов; без них ставится цена по умолчанию.
func toProduct(raw rawProduct) Product {
	variantPrices := make(map[int]decimal.Decimal)
	lowest := decimal.Zero
	found := false

	for _, v := range raw.Variants {
		if !v.IsEnabled {
			continue
		}
		price := decimal.NewFromInt(v.PriceCents).Div(decimal.NewFromInt(100))
		variantPrices[v.ID] = price
		if !found || price.LessThan(lowest) {
			lowest = price
			found = true
		}
	}
	if !found {
		lowest = defaultPrice
	}

	images := make([]string, 0, len(raw.Images))
	for _, img := range raw.Images {
		images = append(images, img.Src)
	}

	return Product{
		ID:            raw.ID,
		Title:         raw.Title,
		Description:   raw.Description,
		Images:        images,
		Variants:      raw.Variants,
		PriceUSD:      lowest,
		VariantPrices: variantPrices,
	}
}
