package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/dinerolabs/solstore/internal/domain"
)

// ReceiptMailer отправляет чек через почтовый мост. Best-effort:
// любая ошибка заворачивается в ErrNotificationFailed и только логируется
// вызывающей стороной.
type ReceiptMailer struct {
	bridgeURL    string
	fromName     string
	senderWallet string
	client       *http.Client
	logger       *log.Entry
}

// NewReceiptMailer создаёт клиента почтового моста.
func NewReceiptMailer(bridgeURL, fromName, senderWallet string, client *http.Client, logger *log.Entry) *ReceiptMailer {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.New().WithField("component", "notify")
	}
	return &ReceiptMailer{
		bridgeURL:    bridgeURL,
		fromName:     fromName,
		senderWallet: senderWallet,
		client:       client,
		logger:       logger,
	}
}

// sendRequest — тело запроса моста; мост сам проверяет, что транзакция
// с указанной подписью существует в сети.
type sendRequest struct {
	To           string `json:"to"`
	From         string `json:"from"`
	Subject      string `json:"subject"`
	Content      string `json:"content"`
	Signature    string `json:"signature"`
	SenderWallet string `json:"senderWallet"`
}

type sendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SendReceipt отправляет покупателю текстовый чек по записи заказа.
func (m *ReceiptMailer) SendReceipt(ctx context.Context, record domain.OrderRecord, address domain.ShippingAddress) error {
	orderNumber := record.Signature
	if len(orderNumber) > 8 {
		orderNumber = orderNumber[:8]
	}

	payload := sendRequest{
		To:           address.Email,
		From:         m.fromName,
		Subject:      fmt.Sprintf("Your order %s", orderNumber),
		Content:      renderReceipt(orderNumber, record, address),
		Signature:    record.Signature,
		SenderWallet: m.senderWallet,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNotificationFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.bridgeURL+"/api/send-email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNotificationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNotificationFailed, err)
	}
	defer resp.Body.Close()

	var decoded sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrNotificationFailed, err)
	}
	if !decoded.Success {
		return fmt.Errorf("%w: %s", domain.ErrNotificationFailed, decoded.Message)
	}

	m.logger.WithFields(log.Fields{
		"order":  orderNumber,
		"to":     address.Email,
		"amount": record.TotalUSD.String(),
	}).Info("receipt email sent")
	return nil
}

// renderReceipt собирает текст чека: позиции, итоги в USD и SOL, адрес.
func renderReceipt(orderNumber string, record domain.OrderRecord, address domain.ShippingAddress) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Order %s\n\n", orderNumber)
	for _, item := range record.Items {
		fmt.Fprintf(&b, "%s x%d — $%s\n", item.Name, item.Quantity, item.PriceUSD.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: $%s (%s SOL)\n", record.TotalUSD.StringFixed(2), record.SOLAmount.String())
	fmt.Fprintf(&b, "Transaction: %s\n\n", record.Signature)
	fmt.Fprintf(&b, "Shipping to:\n%s %s\n%s\n", address.FirstName, address.LastName, address.Address1)
	if address.Address2 != "" {
		fmt.Fprintf(&b, "%s\n", address.Address2)
	}
	fmt.Fprintf(&b, "%s, %s %s\n%s\n", address.City, address.State, address.Zip, address.Country)

	return b.String()
}

var _ domain.ReceiptNotifier = (*ReceiptMailer)(nil)
