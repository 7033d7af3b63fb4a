package proxy

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/dinerolabs/solstore/internal/domain"
)

// DefaultPrintifyUpstream — адрес API провайдера печати.
const DefaultPrintifyUpstream = "https://api.printify.com/v1"

// Printify — обратный прокси к провайдеру печати. Ключ API живёт только
// на сервере и подставляется в каждый запрос; клиент ключа не видит.
type Printify struct {
	apiKey   string
	upstream string
	client   *http.Client
	logger   *log.Entry
}

// NewPrintify создаёт прокси. Пустой upstream означает адрес по умолчанию.
func NewPrintify(apiKey, upstream string, client *http.Client, logger *log.Entry) *Printify {
	if upstream == "" {
		upstream = DefaultPrintifyUpstream
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.New().WithField("component", "printify_proxy")
	}
	return &Printify{apiKey: apiKey, upstream: upstream, client: client, logger: logger}
}

// Routes монтирует обработчик на /api/printify/*.
func (p *Printify) Routes() chi.Router {
	r := chi.NewRouter()
	r.HandleFunc("/*", p.proxy)
	return r
}

// errorBody — формат ошибки самого прокси; ошибки провайдера проходят
// насквозь как есть.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Message: message, Error: detail})
}

func (p *Printify) proxy(w http.ResponseWriter, r *http.Request) {
	if p.apiKey == "" {
		p.logger.Error("printify api key is not configured")
		writeError(w, http.StatusInternalServerError, "Printify API key is not configured", nil)
		return
	}

	rest := chi.URLParam(r, "*")
	target := p.upstream + "/" + rest

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read request body", err)
		return
	}

	if r.Method == http.MethodPost && strings.HasSuffix(rest, "/orders.json") {
		body, err = reshapeOrderBody(body)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to prepare order payload", err)
			return
		}
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, bytes.NewReader(body))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build upstream request", err)
		return
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.WithError(err).WithField("path", rest).Error("upstream request failed")
		writeError(w, http.StatusInternalServerError, "Failed to reach Printify", err)
		return
	}
	defer resp.Body.Close()

	// Статус и тело провайдера отдаются клиенту без изменений.
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		p.logger.WithError(err).Warn("failed to stream upstream response")
	}
}

// reshapeOrderBody приводит заказ к формату провайдера: address_to
// строится из shipping_address, страна всегда код поддерживаемого
// региона доставки.
func reshapeOrderBody(body []byte) ([]byte, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	address, ok := payload["shipping_address"].(map[string]interface{})
	if !ok {
		// Заказ без адреса уходит как есть, провайдер вернёт свою ошибку.
		return body, nil
	}

	address["country"] = domain.SupportedCountry
	payload["shipping_address"] = address
	payload["address_to"] = address

	return json.Marshal(payload)
}
