package paymentgateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const FlutterwaveCode = "flutterwave"

type flutterwaveCustomer struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type flutterwavePaymentRequest struct {
	TxRef       string              `json:"tx_ref"`
	Amount      float64             `json:"amount"`
	Currency    string              `json:"currency"`
	RedirectURL string              `json:"redirect_url,omitempty"`
	Customer    flutterwaveCustomer `json:"customer"`
}

type flutterwavePaymentResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link string `json:"link"`
	} `json:"data"`
}

type flutterwaveVerifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID       int64   `json:"id"`
		TxRef    string  `json:"tx_ref"`
		Status   string  `json:"status"`
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	} `json:"data"`
}

type flutterwave struct {
	baseURL string
	logger  *logrus.Logger
	hc      *http.Client
}

// NewFlutterwave talks to the Flutterwave v3 API. Amounts are sent in major
// units.
func NewFlutterwave(baseURL string, logger *logrus.Logger, hc *http.Client) Adapter {
	return &flutterwave{
		baseURL: baseURL,
		logger:  logger,
		hc:      hc,
	}
}

func (f *flutterwave) Code() string {
	return FlutterwaveCode
}

// ChargeAmount implements Adapter.
func (f *flutterwave) ChargeAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// CreatePaymentLink implements Adapter.
func (f *flutterwave) CreatePaymentLink(ctx context.Context, req LinkRequest) (string, error) {
	var resp flutterwavePaymentResponse

	raw, err := do(ctx, f.logger, f.hc, call{
		gatewayCode: FlutterwaveCode,
		reference:   req.Reference,
		method:      http.MethodPost,
		url:         fmt.Sprintf("%s/v3/payments", f.baseURL),
		header:      http.Header{"Authorization": {"Bearer " + req.Credentials.SecretKey}},
		payload: flutterwavePaymentRequest{
			TxRef:       req.Reference,
			Amount:      f.ChargeAmount(req.Amount).InexactFloat64(),
			Currency:    req.CurrencyCode,
			RedirectURL: req.CallbackURL,
			Customer: flutterwaveCustomer{
				Email: req.CustomerEmail,
				Name:  req.CustomerName,
			},
		},
	}, &resp)
	if err != nil {
		return "", err
	}

	if resp.Status != "success" || resp.Data.Link == "" {
		return "", rejected(ctx, f.logger, FlutterwaveCode, req.Reference, raw, "flutterwave did not return a payment link")
	}

	return resp.Data.Link, nil
}

// VerifyTransaction implements Adapter.
func (f *flutterwave) VerifyTransaction(ctx context.Context, creds Credentials, reference string) (Verification, error) {
	var resp flutterwaveVerifyResponse

	raw, err := do(ctx, f.logger, f.hc, call{
		gatewayCode: FlutterwaveCode,
		reference:   reference,
		method:      http.MethodGet,
		url:         fmt.Sprintf("%s/v3/transactions/verify_by_reference?tx_ref=%s", f.baseURL, url.QueryEscape(reference)),
		header:      http.Header{"Authorization": {"Bearer " + creds.SecretKey}},
	}, &resp)
	if err != nil {
		return Verification{}, err
	}

	if resp.Status != "success" {
		return Verification{}, rejected(ctx, f.logger, FlutterwaveCode, reference, raw, "flutterwave could not verify the transaction")
	}

	v := Verification{
		Status:           resp.Data.Status,
		AmountPaid:       decimal.NewFromFloat(resp.Data.Amount).Round(2),
		GatewayReference: fmt.Sprint(resp.Data.ID),
		Raw:              raw,
	}

	switch resp.Data.Status {
	case "successful":
		v.Status = TransactionSuccess
	case "failed":
		v.Status = TransactionFailed
	case "cancelled":
		v.Status = TransactionAbandoned
	case "pending":
		v.Status = TransactionPending
	}

	return v, nil
}
