package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dinerolabs/solstore/internal/domain"
)

func testItems() []domain.CartItem {
	return []domain.CartItem{
		{ID: "101", Name: "Tee", PriceUSD: decimal.NewFromInt(20), Quantity: 2, VariantID: "4012"},
		{ID: "102", Name: "Mug", PriceUSD: decimal.NewFromInt(10), Quantity: 1},
	}
}

func testAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		FirstName: "Jane",
		LastName:  "Doe",
		Address1:  "1 Main St",
		City:      "Austin",
		State:     "Texas",
		Country:   "Canada", // будет принудительно заменена на поддерживаемую
		Zip:       "78701",
		Email:     "jane@example.com",
	}
}

func TestCreateOrder_ShapesProviderPayload(t *testing.T) {
	var got map[string]interface{}
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"po-77","status":"pending"}`))
	}))
	defer srv.Close()

	r := NewRequester(srv.URL, "shop-1", srv.Client(), nil)
	order, err := r.CreateOrder(context.Background(), testItems(), testAddress())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if gotPath != "/api/printify/shops/shop-1/orders.json" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if order.ExternalOrderID != "po-77" {
		t.Fatalf("unexpected provider order id %q", order.ExternalOrderID)
	}

	externalID, _ := got["external_id"].(string)
	if !strings.HasPrefix(externalID, "order_") {
		t.Fatalf("external_id must carry the order_ prefix, got %q", externalID)
	}
	if got["shipping_method"] != float64(1) {
		t.Fatalf("shipping_method must be 1, got %v", got["shipping_method"])
	}
	if got["send_shipping_notification"] != true {
		t.Fatal("send_shipping_notification must be true")
	}

	shipping, _ := got["shipping_address"].(map[string]interface{})
	if shipping["state"] != "TX" {
		t.Fatalf("state must be encoded, got %v", shipping["state"])
	}
	if shipping["country"] != domain.SupportedCountry {
		t.Fatalf("country must be forced to %s, got %v", domain.SupportedCountry, shipping["country"])
	}

	addressTo, _ := got["address_to"].(map[string]interface{})
	if addressTo["state"] != shipping["state"] || addressTo["zip"] != shipping["zip"] {
		t.Fatal("address_to must mirror shipping_address")
	}

	lineItems, _ := got["line_items"].([]interface{})
	if len(lineItems) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(lineItems))
	}
	first, _ := lineItems[0].(map[string]interface{})
	if first["variant_id"] != float64(4012) {
		t.Fatalf("variant id must come from the item, got %v", first["variant_id"])
	}
	second, _ := lineItems[1].(map[string]interface{})
	// Без варианта числовым идентификатором становится сам товар.
	if second["variant_id"] != float64(102) {
		t.Fatalf("variant id must fall back to product id, got %v", second["variant_id"])
	}
}

func TestCreateOrder_NonNumericVariant(t *testing.T) {
	r := NewRequester("http://unused", "shop-1", nil, nil)

	items := []domain.CartItem{{ID: "abc", Quantity: 1, PriceUSD: decimal.NewFromInt(5)}}
	_, err := r.CreateOrder(context.Background(), items, testAddress())
	if !errors.Is(err, domain.ErrFulfillmentFailed) {
		t.Fatalf("expected ErrFulfillmentFailed, got %v", err)
	}
}

func TestCreateOrder_ProviderErrorWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid variant"}`))
	}))
	defer srv.Close()

	r := NewRequester(srv.URL, "shop-1", srv.Client(), nil)
	_, err := r.CreateOrder(context.Background(), testItems(), testAddress())
	if !errors.Is(err, domain.ErrFulfillmentFailed) {
		t.Fatalf("expected ErrFulfillmentFailed, got %v", err)
	}
}

func TestCreateOrder_UnknownStatePassesThrough(t *testing.T) {
	var shipping map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		shipping, _ = payload["shipping_address"].(map[string]interface{})
		_, _ = w.Write([]byte(`{"id":"po-1"}`))
	}))
	defer srv.Close()

	address := testAddress()
	address.State = "Narnia"

	r := NewRequester(srv.URL, "shop-1", srv.Client(), nil)
	if _, err := r.CreateOrder(context.Background(), testItems(), address); err != nil {
		t.Fatalf("create order: %v", err)
	}
	if shipping["state"] != "Narnia" {
		t.Fatalf("unknown state must pass through unchanged, got %v", shipping["state"])
	}
}
