package proxy

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

// TransactionLookup проверяет, что платёж за письмо действительно есть в сети.
type TransactionLookup interface {
	TransactionExists(ctx context.Context, signature string) (bool, error)
}

// MailSender отправляет само письмо после проверки оплаты.
type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SentEmail — запись истории отправок кошелька.
type SentEmail struct {
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Signature string    `json:"signature"`
	SentAt    time.Time `json:"sentAt"`
}

// MailBridge — HTTP-мост между витриной и почтой: письмо уходит только
// после подтверждения транзакции-оплаты, каждая подпись тратится один раз.
type MailBridge struct {
	lookup  TransactionLookup
	sender  MailSender
	costSOL string
	logger  *log.Entry

	mu      sync.Mutex
	used    map[string]struct{}
	history map[string][]SentEmail
}

// NewMailBridge создаёт мост. costSOL — цена одного письма в SOL.
func NewMailBridge(lookup TransactionLookup, sender MailSender, costSOL string, logger *log.Entry) *MailBridge {
	if costSOL == "" {
		costSOL = "0.001"
	}
	if logger == nil {
		logger = log.New().WithField("component", "mail_bridge")
	}
	return &MailBridge{
		lookup:  lookup,
		sender:  sender,
		costSOL: costSOL,
		logger:  logger,
		used:    make(map[string]struct{}),
		history: make(map[string][]SentEmail),
	}
}

// Routes монтирует эндпоинты моста.
func (b *MailBridge) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/email-cost", b.handleCost)
	r.Post("/send-email", b.handleSend)
	r.Get("/email-history/{wallet}", b.handleHistory)
	return r
}

type sendEmailRequest struct {
	To           string `json:"to"`
	From         string `json:"from"`
	Subject      string `json:"subject"`
	Content      string `json:"content"`
	Signature    string `json:"signature"`
	SenderWallet string `json:"senderWallet"`
}

type sendEmailResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (b *MailBridge) handleCost(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"cost": b.costSOL})
}

func (b *MailBridge) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, sendEmailResponse{Message: "invalid request body"})
		return
	}
	if req.To == "" || req.Signature == "" || req.SenderWallet == "" {
		writeJSON(w, http.StatusBadRequest, sendEmailResponse{Message: "to, signature and senderWallet are required"})
		return
	}

	// Подпись тратится один раз: повторная отправка тем же платежом запрещена.
	b.mu.Lock()
	if _, spent := b.used[req.Signature]; spent {
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, sendEmailResponse{Message: "transaction signature already used"})
		return
	}
	b.mu.Unlock()

	exists, err := b.lookup.TransactionExists(r.Context(), req.Signature)
	if err != nil {
		b.logger.WithError(err).WithField("signature", req.Signature).Warn("transaction lookup failed")
		writeJSON(w, http.StatusOK, sendEmailResponse{Message: "failed to verify payment transaction"})
		return
	}
	if !exists {
		writeJSON(w, http.StatusOK, sendEmailResponse{Message: "payment transaction not found"})
		return
	}

	if err := b.sender.Send(r.Context(), req.To, req.Subject, req.Content); err != nil {
		b.logger.WithError(err).WithField("to", req.To).Error("failed to send email")
		writeJSON(w, http.StatusOK, sendEmailResponse{Message: "failed to send email"})
		return
	}

	b.mu.Lock()
	b.used[req.Signature] = struct{}{}
	b.history[req.SenderWallet] = append(b.history[req.SenderWallet], SentEmail{
		To:        req.To,
		Subject:   req.Subject,
		Signature: req.Signature,
		SentAt:    time.Now(),
	})
	b.mu.Unlock()

	b.logger.WithFields(log.Fields{
		"to":     req.To,
		"wallet": req.SenderWallet,
	}).Info("email sent")
	writeJSON(w, http.StatusOK, sendEmailResponse{Success: true, Message: "email sent"})
}

func (b *MailBridge) handleHistory(w http.ResponseWriter, r *http.Request) {
	wallet := chi.URLParam(r, "wallet")

	b.mu.Lock()
	records := b.history[wallet]
	result := make([]SentEmail, len(records))
	copy(result, records)
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, result)
}
