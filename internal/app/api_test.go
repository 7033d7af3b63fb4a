package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinerolabs/solstore/internal/domain"
	"github.com/dinerolabs/solstore/internal/storage/file"
)

func newTestAPI(t *testing.T) (*api, *httptest.Server) {
	t.Helper()
	store, err := file.Open(t.TempDir())
	require.NoError(t, err)

	a := &api{
		store:  store,
		logger: log.New().WithField("component", "api"),
	}
	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) { a.register(r) })
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return a, srv
}

func TestCartEndpoints(t *testing.T) {
	_, srv := newTestAPI(t)

	item := domain.CartItem{ID: "p1", Name: "Tee", PriceUSD: decimal.NewFromInt(20), Quantity: 2}
	raw, _ := json.Marshal(item)

	resp, err := http.Post(srv.URL+"/api/cart/items", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/cart")
	require.NoError(t, err)
	defer resp.Body.Close()

	var items []domain.CartItem
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestCartAdd_RejectsInvalidItem(t *testing.T) {
	_, srv := newTestAPI(t)

	raw, _ := json.Marshal(domain.CartItem{ID: "p1", Quantity: 0})
	resp, err := http.Post(srv.URL+"/api/cart/items", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProfileAddress_Validation(t *testing.T) {
	_, srv := newTestAPI(t)

	address := domain.ShippingAddress{
		FirstName: "Jane", LastName: "Doe", Address1: "1 Main St",
		City: "Austin", State: "TX", Country: "US", Zip: "78701",
		Email: "not-an-email",
	}
	raw, _ := json.Marshal(address)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/profile/address", bytes.NewReader(raw))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	address.Email = "jane@example.com"
	raw, _ = json.Marshal(address)
	req, _ = http.NewRequest(http.MethodPut, srv.URL+"/api/profile/address", bytes.NewReader(raw))
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOrders_NotFound(t *testing.T) {
	_, srv := newTestAPI(t)

	resp, err := http.Get(srv.URL + "/api/orders/absent")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCheckout_WithoutWalletUnavailable(t *testing.T) {
	_, srv := newTestAPI(t)

	resp, err := http.Post(srv.URL+"/api/checkout", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestCheckoutStatus_Mapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.ErrCartEmpty, http.StatusBadRequest},
		{domain.ErrAddressRequired, http.StatusBadRequest},
		{domain.ErrAddressInvalid, http.StatusBadRequest},
		{domain.ErrCheckoutInFlight, http.StatusConflict},
		{domain.ErrInsufficientFunds, http.StatusPaymentRequired},
		{domain.ErrConfirmationTimeout, http.StatusBadGateway},
		{errors.New("unclassified"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		wrapped := fmt.Errorf("wrap: %w", tc.err)
		if got := checkoutStatus(wrapped); got != tc.status {
			t.Fatalf("checkoutStatus(%v) = %d, want %d", tc.err, got, tc.status)
		}
	}
}
