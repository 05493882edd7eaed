package paymentgateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const MidtransCode = "midtrans"

type midtransTransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type midtransCustomerDetails struct {
	FirstName string `json:"first_name,omitempty"`
	Email     string `json:"email"`
}

type midtransCallbacks struct {
	Finish string `json:"finish,omitempty"`
}

type midtransSnapRequest struct {
	TransactionDetails midtransTransactionDetails `json:"transaction_details"`
	CustomerDetails    midtransCustomerDetails    `json:"customer_details"`
	Callbacks          *midtransCallbacks         `json:"callbacks,omitempty"`
}

type midtransSnapResponse struct {
	Token         string   `json:"token"`
	RedirectURL   string   `json:"redirect_url"`
	ErrorMessages []string `json:"error_messages"`
}

type midtransStatusResponse struct {
	StatusCode        string `json:"status_code"`
	StatusMessage     string `json:"status_message"`
	TransactionID     string `json:"transaction_id"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	Currency          string `json:"currency"`
	PaymentType       string `json:"payment_type"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
}

type midtrans struct {
	snapURL string
	apiURL  string
	logger  *logrus.Logger
	hc      *http.Client
}

// NewMidtrans creates payment links through Snap and checks transactions
// through the core API. Gross amounts are whole major units.
func NewMidtrans(snapURL, apiURL string, logger *logrus.Logger, hc *http.Client) Adapter {
	return &midtrans{
		snapURL: snapURL,
		apiURL:  apiURL,
		logger:  logger,
		hc:      hc,
	}
}

func (m *midtrans) Code() string {
	return MidtransCode
}

func (m *midtrans) authorization(serverKey string) http.Header {
	key := base64.StdEncoding.EncodeToString([]byte(serverKey + ":"))
	return http.Header{"Authorization": {"Basic " + key}}
}

// ChargeAmount implements Adapter. Snap only takes whole amounts.
func (m *midtrans) ChargeAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(0)
}

// CreatePaymentLink implements Adapter.
func (m *midtrans) CreatePaymentLink(ctx context.Context, req LinkRequest) (string, error) {
	payload := midtransSnapRequest{
		TransactionDetails: midtransTransactionDetails{
			OrderID:     req.Reference,
			GrossAmount: m.ChargeAmount(req.Amount).IntPart(),
		},
		CustomerDetails: midtransCustomerDetails{
			FirstName: req.CustomerName,
			Email:     req.CustomerEmail,
		},
	}
	if req.CallbackURL != "" {
		payload.Callbacks = &midtransCallbacks{Finish: req.CallbackURL}
	}

	var resp midtransSnapResponse

	raw, err := do(ctx, m.logger, m.hc, call{
		gatewayCode: MidtransCode,
		reference:   req.Reference,
		method:      http.MethodPost,
		url:         fmt.Sprintf("%s/snap/v1/transactions", m.snapURL),
		header:      m.authorization(req.Credentials.SecretKey),
		payload:     payload,
	}, &resp)
	if err != nil {
		return "", err
	}

	if resp.RedirectURL == "" {
		return "", rejected(ctx, m.logger, MidtransCode, req.Reference, raw, "midtrans did not return a payment link")
	}

	return resp.RedirectURL, nil
}

// VerifyTransaction implements Adapter.
func (m *midtrans) VerifyTransaction(ctx context.Context, creds Credentials, reference string) (Verification, error) {
	var resp midtransStatusResponse

	raw, err := do(ctx, m.logger, m.hc, call{
		gatewayCode: MidtransCode,
		reference:   reference,
		method:      http.MethodGet,
		url:         fmt.Sprintf("%s/v2/%s/status", m.apiURL, url.PathEscape(reference)),
		header:      m.authorization(creds.SecretKey),
	}, &resp)
	if err != nil {
		return Verification{}, err
	}

	// the status API answers 200 with its own status_code
	if resp.StatusCode == "404" || resp.TransactionStatus == "" {
		return Verification{}, rejected(ctx, m.logger, MidtransCode, reference, raw, "midtrans could not find the transaction")
	}

	amount, err := decimal.NewFromString(resp.GrossAmount)
	if err != nil {
		return Verification{}, rejected(ctx, m.logger, MidtransCode, reference, raw, "midtrans returned an unreadable gross amount")
	}

	v := Verification{
		Status:           resp.TransactionStatus,
		AmountPaid:       amount,
		GatewayReference: resp.TransactionID,
		Raw:              raw,
	}

	switch resp.TransactionStatus {
	case "settlement":
		v.Status = TransactionSuccess
	case "capture":
		if resp.FraudStatus == "" || resp.FraudStatus == "accept" {
			v.Status = TransactionSuccess
		}
	case "deny", "failure":
		v.Status = TransactionFailed
	case "cancel", "expire":
		v.Status = TransactionAbandoned
	case "pending":
		v.Status = TransactionPending
	}

	return v, nil
}
