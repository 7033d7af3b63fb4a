package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/dinerolabs/solstore/internal/domain"
)

// Requester строит и отправляет запрос на создание заказа у провайдера
// печати через прокси. Одна попытка: неудача уходит оркестратору как
// восстановимая ошибка, заказ всё равно будет записан.
type Requester struct {
	baseURL string
	shopID  string
	client  *http.Client
	logger  *log.Entry
}

// NewRequester создаёт клиента провайдера поверх прокси.
func NewRequester(baseURL, shopID string, client *http.Client, logger *log.Entry) *Requester {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.New().WithField("component", "fulfillment")
	}
	return &Requester{baseURL: baseURL, shopID: shopID, client: client, logger: logger}
}

// orderPayload — тело запроса создания заказа у провайдера.
type orderPayload struct {
	ExternalID               string                       `json:"external_id"`
	LineItems                []domain.FulfillmentLineItem `json:"line_items"`
	ShippingMethod           int                          `json:"shipping_method"`
	ShippingAddress          domain.FulfillmentAddress    `json:"shipping_address"`
	AddressTo                domain.FulfillmentAddress    `json:"address_to"`
	Customer                 domain.FulfillmentCustomer   `json:"customer"`
	SendShippingNotification bool                         `json:"send_shipping_notification"`
}

// CreateOrder нормализует адрес, собирает позиции из снимка корзины и
// отправляет один запрос провайдеру.
func (r *Requester) CreateOrder(ctx context.Context, items []domain.CartItem, address domain.ShippingAddress) (domain.FulfillmentOrder, error) {
	normalized := r.normalizeAddress(address)

	lineItems, err := buildLineItems(items)
	if err != nil {
		return domain.FulfillmentOrder{}, fmt.Errorf("%w: %v", domain.ErrFulfillmentFailed, err)
	}

	payload := orderPayload{
		ExternalID:               "order_" + uuid.NewString(),
		LineItems:                lineItems,
		ShippingMethod:           1,
		ShippingAddress:          normalized,
		AddressTo:                normalized,
		Customer:                 customerProfile(address, normalized),
		SendShippingNotification: true,
	}

	order, err := r.post(ctx, payload)
	if err != nil {
		return domain.FulfillmentOrder{}, fmt.Errorf("%w: %v", domain.ErrFulfillmentFailed, err)
	}

	order.LineItems = lineItems
	order.Address = normalized
	order.Customer = payload.Customer

	r.logger.WithFields(log.Fields{
		"external_order_id": order.ExternalOrderID,
		"items":             len(lineItems),
	}).Info("fulfillment order created")

	return order, nil
}

// normalizeAddress переводит адрес в кодировку провайдера: страна
// фиксирована поддерживаемой, штат — кодом из таблицы.
func (r *Requester) normalizeAddress(address domain.ShippingAddress) domain.FulfillmentAddress {
	state, known := StateCode(address.State)
	if !known {
		r.logger.WithField("state", address.State).Warn("no state code found, passing through as-is")
	}

	return domain.FulfillmentAddress{
		FirstName: address.FirstName,
		LastName:  address.LastName,
		Address1:  address.Address1,
		Address2:  address.Address2,
		City:      address.City,
		State:     state,
		Country:   domain.SupportedCountry,
		Zip:       address.Zip,
		Email:     address.Email,
		Phone:     address.Phone,
	}
}

func customerProfile(address domain.ShippingAddress, normalized domain.FulfillmentAddress) domain.FulfillmentCustomer {
	return domain.FulfillmentCustomer{
		FirstName:   address.FirstName,
		LastName:    address.LastName,
		Email:       address.Email,
		Phone:       address.Phone,
		CountryCode: domain.SupportedCountry,
		CountryName: "United States",
		Region:      normalized.State,
		Address1:    address.Address1,
		Address2:    address.Address2,
		City:        address.City,
		Zip:         address.Zip,
	}
}

// buildLineItems собирает позиции провайдера из снимка корзины.
// Идентификатор варианта числовой; при его отсутствии используется
// идентификатор товара.
func buildLineItems(items []domain.CartItem) ([]domain.FulfillmentLineItem, error) {
	lineItems := make([]domain.FulfillmentLineItem, 0, len(items))
	for _, item := range items {
		raw := item.VariantID
		if raw == "" {
			raw = item.ID
		}
		variantID, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("item %s: variant id %q is not numeric", item.ID, raw)
		}
		lineItems = append(lineItems, domain.FulfillmentLineItem{
			ProductID: item.ID,
			VariantID: variantID,
			Quantity:  item.Quantity,
		})
	}
	return lineItems, nil
}

func (r *Requester) post(ctx context.Context, payload orderPayload) (domain.FulfillmentOrder, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.FulfillmentOrder{}, err
	}

	url := fmt.Sprintf("%s/api/printify/shops/%s/orders.json", r.baseURL, r.shopID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.FulfillmentOrder{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return domain.FulfillmentOrder{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.FulfillmentOrder{}, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, detail)
	}

	var order domain.FulfillmentOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return domain.FulfillmentOrder{}, fmt.Errorf("decode provider response: %w", err)
	}
	return order, nil
}

var _ domain.FulfillmentService = (*Requester)(nil)
