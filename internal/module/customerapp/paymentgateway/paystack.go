package paymentgateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hirestore/hs-order/internal/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const PaystackCode = "paystack"

type paystackInitializeRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Reference   string `json:"reference"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type paystackInitializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type paystackVerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID        int64  `json:"id"`
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
	} `json:"data"`
}

type paystack struct {
	baseURL string
	logger  *logrus.Logger
	hc      *http.Client
}

// NewPaystack talks to the Paystack transaction API. Amounts are sent in the
// currency's minor unit.
func NewPaystack(baseURL string, logger *logrus.Logger, hc *http.Client) Adapter {
	return &paystack{
		baseURL: baseURL,
		logger:  logger,
		hc:      hc,
	}
}

func (p *paystack) Code() string {
	return PaystackCode
}

// ChargeAmount implements Adapter.
func (p *paystack) ChargeAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// CreatePaymentLink implements Adapter.
func (p *paystack) CreatePaymentLink(ctx context.Context, req LinkRequest) (string, error) {
	var resp paystackInitializeResponse

	raw, err := do(ctx, p.logger, p.hc, call{
		gatewayCode: PaystackCode,
		reference:   req.Reference,
		method:      http.MethodPost,
		url:         fmt.Sprintf("%s/transaction/initialize", p.baseURL),
		header:      http.Header{"Authorization": {"Bearer " + req.Credentials.SecretKey}},
		payload: paystackInitializeRequest{
			Email:       req.CustomerEmail,
			Amount:      money.ToMinorUnit(p.ChargeAmount(req.Amount), 2),
			Currency:    req.CurrencyCode,
			Reference:   req.Reference,
			CallbackURL: req.CallbackURL,
		},
	}, &resp)
	if err != nil {
		return "", err
	}

	if !resp.Status || resp.Data.AuthorizationURL == "" {
		return "", rejected(ctx, p.logger, PaystackCode, req.Reference, raw, "paystack did not return a payment link")
	}

	return resp.Data.AuthorizationURL, nil
}

// VerifyTransaction implements Adapter.
func (p *paystack) VerifyTransaction(ctx context.Context, creds Credentials, reference string) (Verification, error) {
	var resp paystackVerifyResponse

	raw, err := do(ctx, p.logger, p.hc, call{
		gatewayCode: PaystackCode,
		reference:   reference,
		method:      http.MethodGet,
		url:         fmt.Sprintf("%s/transaction/verify/%s", p.baseURL, url.PathEscape(reference)),
		header:      http.Header{"Authorization": {"Bearer " + creds.SecretKey}},
	}, &resp)
	if err != nil {
		return Verification{}, err
	}

	if !resp.Status {
		return Verification{}, rejected(ctx, p.logger, PaystackCode, reference, raw, "paystack could not verify the transaction")
	}

	v := Verification{
		Status:           resp.Data.Status,
		AmountPaid:       money.FromMinorUnit(resp.Data.Amount, 2),
		GatewayReference: fmt.Sprint(resp.Data.ID),
		Raw:              raw,
	}

	switch resp.Data.Status {
	case "success":
		v.Status = TransactionSuccess
	case "failed":
		v.Status = TransactionFailed
	case "abandoned":
		v.Status = TransactionAbandoned
	case "pending", "ongoing", "processing", "queued":
		v.Status = TransactionPending
	}

	return v, nil
}
