package paypal

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopspring/decimal"

	"github.com/cloudnet/billing/internal/config"
	ierr "github.com/cloudnet/billing/internal/errors"
	"github.com/cloudnet/billing/internal/logger"
	"github.com/cloudnet/billing/internal/types"
	"github.com/cloudnet/billing/internal/wallet"
)

const (
	liveEndpoint    = "https://api-3t.paypal.com/nvp"
	sandboxEndpoint = "https://api-3t.sandbox.paypal.com/nvp"
	apiVersion      = "124.0"
)

// Client implements wallet.Provider on the PayPal Express Checkout
// NVP API. The sandbox endpoint is selected once from configuration.
type Client struct {
	endpoint   string
	user       string
	password   string
	signature  string
	httpClient *retryablehttp.Client
	logger     *logger.Logger
}

var _ wallet.Provider = (*Client)(nil)

// NewClient creates a PayPal wallet client from configuration.
func NewClient(cfg *config.Configuration, logger *logger.Logger) *Client {
	endpoint := liveEndpoint
	if cfg.PayPal.Sandbox {
		endpoint = sandboxEndpoint
	}

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 2
	httpClient.Logger = nil

	return &Client{
		endpoint:   endpoint,
		user:       cfg.PayPal.APIUser,
		password:   cfg.PayPal.APIPassword,
		signature:  cfg.PayPal.APISignature,
		httpClient: httpClient,
		logger:     logger,
	}
}

// FetchDetails runs GetExpressCheckoutDetails for a redirect token.
func (c *Client) FetchDetails(ctx context.Context, token string) (*wallet.Details, error) {
	resp, err := c.call(ctx, "GetExpressCheckoutDetails", url.Values{
		"TOKEN": {token},
	})
	if err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(resp.Get("PAYMENTREQUEST_0_AMT"))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Wallet provider returned a malformed payment amount").
			WithReportableDetails(map[string]any{"token": token}).
			Mark(ierr.ErrHTTPClient)
	}

	return &wallet.Details{
		Amount:  amount,
		PayerID: resp.Get("PAYERID"),
	}, nil
}

// Finalize runs DoExpressCheckoutPayment, collecting the approved
// payment.
func (c *Client) Finalize(ctx context.Context, token, payerID string, amount decimal.Decimal) (*wallet.Finalization, error) {
	resp, err := c.call(ctx, "DoExpressCheckoutPayment", url.Values{
		"TOKEN":                          {token},
		"PAYERID":                        {payerID},
		"PAYMENTREQUEST_0_AMT":           {amount.StringFixed(2)},
		"PAYMENTREQUEST_0_CURRENCYCODE":  {"USD"},
		"PAYMENTREQUEST_0_PAYMENTACTION": {"Sale"},
	})
	if err != nil {
		return nil, err
	}

	raw := make(types.Metadata, len(resp))
	for key := range resp {
		raw[key] = resp.Get(key)
	}

	// The transaction id is the stable reference; replayed finalize
	// calls for the same checkout report the same id.
	reference := resp.Get("PAYMENTINFO_0_TRANSACTIONID")
	if reference == "" {
		reference = resp.Get("TOKEN")
	}

	return &wallet.Finalization{
		TransactionToken: reference,
		Raw:              raw,
	}, nil
}

// call performs one NVP request and decodes the form-encoded response.
func (c *Client) call(ctx context.Context, method string, params url.Values) (url.Values, error) {
	form := url.Values{
		"METHOD":    {method},
		"VERSION":   {apiVersion},
		"USER":      {c.user},
		"PWD":       {c.password},
		"SIGNATURE": {c.signature},
	}
	for key, values := range params {
		form[key] = values
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrHTTPClient)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Wallet provider is unreachable").
			Mark(ierr.ErrHTTPClient)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrHTTPClient)
	}

	resp, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Wallet provider returned a malformed response").
			Mark(ierr.ErrHTTPClient)
	}

	if ack := resp.Get("ACK"); ack != "Success" && ack != "SuccessWithWarning" {
		c.logger.Errorw("paypal call failed",
			"method", method,
			"ack", ack,
			"error", resp.Get("L_LONGMESSAGE0"),
		)
		return nil, ierr.NewError("wallet payment was not accepted").
			WithHint(resp.Get("L_LONGMESSAGE0")).
			WithReportableDetails(map[string]any{
				"method":     method,
				"ack":        ack,
				"error_code": resp.Get("L_ERRORCODE0"),
			}).
			Mark(ierr.ErrHTTPClient)
	}

	return resp, nil
}
