package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const payPath = "/pg/v1/pay"

var ErrGateway = errors.New("payment gateway request failed")

type ClientConfig struct {
	BaseURL    string
	MerchantID string
	SaltKey    string
	SaltIndex  string
	Timeout    time.Duration
}

// Client is the outbound side of the gateway: signed pay-page requests.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

type payPayload struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId"`
	Amount                int64             `json:"amount"`
	RedirectURL           string            `json:"redirectUrl"`
	RedirectMode          string            `json:"redirectMode"`
	CallbackURL           string            `json:"callbackUrl"`
	MobileNumber          string            `json:"mobileNumber"`
	PaymentInstrument     map[string]string `json:"paymentInstrument"`
}

type payResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		InstrumentResponse struct {
			RedirectInfo struct {
				URL string `json:"url"`
			} `json:"redirectInfo"`
		} `json:"instrumentResponse"`
	} `json:"data"`
}

type InitiateRequest struct {
	MerchantTransactionID string
	MerchantUserID        string
	AmountPaise           int64
	RedirectURL           string
	CallbackURL           string
	MobileNumber          string
}

// Initiate signs and posts a pay-page request, returning the URL the
// shopper is redirected to.
func (c *Client) Initiate(ctx context.Context, req InitiateRequest) (string, error) {
	payload := payPayload{
		MerchantID:            c.cfg.MerchantID,
		MerchantTransactionID: req.MerchantTransactionID,
		MerchantUserID:        req.MerchantUserID,
		Amount:                req.AmountPaise,
		RedirectURL:           req.RedirectURL,
		RedirectMode:          "REDIRECT",
		CallbackURL:           req.CallbackURL,
		MobileNumber:          req.MobileNumber,
		PaymentInstrument:     map[string]string{"type": "PAY_PAGE"},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	body, err := json.Marshal(map[string]string{"request": encoded})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+payPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-VERIFY", Checksum(encoded, payPath, c.cfg.SaltKey, c.cfg.SaltIndex))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	var out payResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: bad response body", ErrGateway)
	}
	if !out.Success {
		if out.Message != "" {
			return "", fmt.Errorf("%w: %s", ErrGateway, out.Message)
		}
		return "", ErrGateway
	}
	return out.Data.InstrumentResponse.RedirectInfo.URL, nil
}
