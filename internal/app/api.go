package app

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/dinerolabs/solstore/internal/domain"
	"github.com/dinerolabs/solstore/internal/service/catalog"
	"github.com/dinerolabs/solstore/internal/service/checkout"
	"github.com/dinerolabs/solstore/internal/storage/file"
)

// api — HTTP-слой витрины: каталог, корзина, профиль, заказы и запуск чекаута.
type api struct {
	store        *file.Store
	catalog      *catalog.Client
	orchestrator *checkout.Orchestrator
	logger       *log.Entry
}

func (a *api) register(r chi.Router) {
	r.Get("/products", a.handleProducts)
	r.Get("/products/{id}", a.handleProduct)
	r.Get("/cart", a.handleCart)
	r.Post("/cart/items", a.handleCartAdd)
	r.Delete("/cart/items/{id}", a.handleCartRemove)
	r.Put("/profile/address", a.handleSetAddress)
	r.Get("/orders", a.handleOrders)
	r.Get("/orders/{signature}", a.handleOrder)
	r.Post("/checkout", a.handleCheckout)
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

func (a *api) handleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.catalog.Products(r.Context())
	if err != nil {
		a.logger.WithError(err).Warn("failed to load product catalog")
		respondMessage(w, http.StatusBadGateway, "failed to load products")
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (a *api) handleProduct(w http.ResponseWriter, r *http.Request) {
	product, err := a.catalog.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.logger.WithError(err).Warn("failed to load product")
		respondMessage(w, http.StatusBadGateway, "failed to load product")
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (a *api) handleCart(w http.ResponseWriter, _ *http.Request) {
	items, err := a.store.Items()
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, "failed to read cart")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (a *api) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	var item domain.CartItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid cart item")
		return
	}
	if errs := item.ValidateInvariants(); len(errs) > 0 {
		respondMessage(w, http.StatusBadRequest, errs[0].Error())
		return
	}
	if err := a.store.AddItem(item); err != nil {
		respondMessage(w, http.StatusInternalServerError, "failed to store cart item")
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (a *api) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	if err := a.store.RemoveItem(chi.URLParam(r, "id")); err != nil {
		respondMessage(w, http.StatusInternalServerError, "failed to update cart")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleSetAddress(w http.ResponseWriter, r *http.Request) {
	var address domain.ShippingAddress
	if err := json.NewDecoder(r.Body).Decode(&address); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid address body")
		return
	}
	if err := address.Validate(); err != nil {
		respondMessage(w, http.StatusBadRequest, domain.UserMessage(domain.ErrAddressInvalid))
		return
	}
	if err := a.store.SetShippingAddress(address); err != nil {
		respondMessage(w, http.StatusInternalServerError, "failed to store address")
		return
	}
	respondJSON(w, http.StatusOK, address)
}

func (a *api) handleOrders(w http.ResponseWriter, _ *http.Request) {
	records, err := a.store.List(0)
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, "failed to read orders")
		return
	}
	respondJSON(w, http.StatusOK, records)
}

func (a *api) handleOrder(w http.ResponseWriter, r *http.Request) {
	record, err := a.store.Get(chi.URLParam(r, "signature"))
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			respondMessage(w, http.StatusNotFound, "order not found")
			return
		}
		respondMessage(w, http.StatusInternalServerError, "failed to read order")
		return
	}
	respondJSON(w, http.StatusOK, record)
}

type checkoutRequest struct {
	WantReceipt bool `json:"wantReceipt"`
}

type checkoutResponse struct {
	AttemptID   string                   `json:"attemptId"`
	Stage       domain.Stage             `json:"stage"`
	Signature   string                   `json:"signature,omitempty"`
	Record      *domain.OrderRecord      `json:"record,omitempty"`
	Fulfillment *domain.FulfillmentOrder `json:"fulfillment,omitempty"`
	Message     string                   `json:"message,omitempty"`
}

func (a *api) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if a.orchestrator == nil {
		respondMessage(w, http.StatusServiceUnavailable, "payment wallet is not configured")
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := a.orchestrator.Run(r.Context(), checkout.Input{
		Address:     a.store.ShippingAddress(),
		WantReceipt: req.WantReceipt,
	})
	if err != nil {
		respondJSON(w, checkoutStatus(err), checkoutResponse{
			AttemptID: result.AttemptID,
			Stage:     result.Stage,
			Signature: result.Signature,
			Message:   domain.UserMessage(err),
		})
		return
	}

	respondJSON(w, http.StatusOK, checkoutResponse{
		AttemptID:   result.AttemptID,
		Stage:       result.Stage,
		Signature:   result.Signature,
		Record:      result.Record,
		Fulfillment: result.Fulfillment,
	})
}

// checkoutStatus переводит таксономию ошибок чекаута в HTTP-статусы.
func checkoutStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrCartEmpty),
		errors.Is(err, domain.ErrAddressRequired),
		errors.Is(err, domain.ErrAddressInvalid),
		errors.Is(err, domain.ErrAmountNegative),
		errors.Is(err, domain.ErrItemIDRequired),
		errors.Is(err, domain.ErrItemQtyInvalid),
		errors.Is(err, domain.ErrItemPriceInvalid):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCheckoutInFlight):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	default:
		return http.StatusBadGateway
	}
}
