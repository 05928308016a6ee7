package maxmind

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/cloudnet/billing/internal/config"
	"github.com/cloudnet/billing/internal/domain/card"
	ierr "github.com/cloudnet/billing/internal/errors"
	"github.com/cloudnet/billing/internal/logger"
	"github.com/cloudnet/billing/internal/risk"
)

const defaultEndpoint = "https://minfraud.maxmind.com/minfraud/v2.0/score"

// Client scores card submissions against the MaxMind minFraud service.
type Client struct {
	endpoint   string
	accountID  string
	licenseKey string
	httpClient *retryablehttp.Client
	logger     *logger.Logger
}

var _ risk.Service = (*Client)(nil)

// NewClient creates a minFraud client from configuration.
func NewClient(cfg *config.Configuration, logger *logger.Logger) *Client {
	endpoint := cfg.MaxMind.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 1
	httpClient.Logger = nil

	return &Client{
		endpoint:   endpoint,
		accountID:  cfg.MaxMind.AccountID,
		licenseKey: cfg.MaxMind.LicenseKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

type scoreRequest struct {
	Device struct {
		IPAddress string `json:"ip_address"`
		UserAgent string `json:"user_agent,omitempty"`
	} `json:"device"`
	CreditCard struct {
		IssuerIDNumber string `json:"issuer_id_number,omitempty"`
		Last4Digits    string `json:"last_digits,omitempty"`
	} `json:"credit_card"`
	Billing struct {
		City       string `json:"city,omitempty"`
		Country    string `json:"country,omitempty"`
		PostalCode string `json:"postal,omitempty"`
		Region     string `json:"region,omitempty"`
	} `json:"billing"`
}

type scoreResponse struct {
	RiskScore float64 `json:"risk_score"`
}

// ScoreCard submits the card's device and billing attributes for
// scoring. A transport failure leaves the card unassessed rather than
// failing the card submission outright.
func (c *Client) ScoreCard(ctx context.Context, billingCard *card.BillingCard) (*risk.Score, error) {
	payload := scoreRequest{}
	payload.Device.IPAddress = billingCard.IPAddress
	payload.Device.UserAgent = billingCard.UserAgent
	payload.CreditCard.IssuerIDNumber = billingCard.BIN
	payload.CreditCard.Last4Digits = billingCard.Last4
	payload.Billing.City = billingCard.City
	payload.Billing.Country = billingCard.Country
	payload.Billing.PostalCode = billingCard.Postal
	payload.Billing.Region = billingCard.Region

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrHTTPClient)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.accountID, c.licenseKey)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Errorw("fraud scoring request failed", "error", err, "card_id", billingCard.ID)
		return &risk.Score{Verified: false}, nil
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		c.logger.Errorw("fraud scoring request rejected",
			"status", httpResp.StatusCode,
			"card_id", billingCard.ID,
		)
		return &risk.Score{Verified: false}, nil
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrHTTPClient)
	}

	var parsed scoreResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Fraud service returned a malformed response").
			Mark(ierr.ErrHTTPClient)
	}

	return &risk.Score{Score: parsed.RiskScore, Verified: true}, nil
}
