// internal/adapters/payment/client.go
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"sunset_storefront/internal/adapters/observability"
	"sunset_storefront/internal/domain"
)

// Client is the server-side half of the processor SDK: retrieve the status of
// a pending intent and confirm the charge against its client secret. Declines
// come back as ProcessorError with the processor's own message, which the
// flow surfaces to the user verbatim.
type Client struct {
	base string
	key  string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("processor secret key is required")
	}
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		key:  key,
		hc:   &http.Client{Timeout: 30 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

func (c *Client) RetrieveIntentStatus(ctx context.Context, clientSecret string) (domain.IntentStatus, error) {
	var out domain.IntentStatus
	u := fmt.Sprintf("%s/v1/intents/%s", c.base, url.PathEscape(clientSecret))
	if err := c.do(ctx, http.MethodGet, u, nil, &out); err != nil {
		return domain.IntentStatus{}, err
	}
	return out, nil
}

func (c *Client) ConfirmPayment(ctx context.Context, clientSecret, paymentMethodID, returnURL string) (domain.ConfirmResult, error) {
	body := map[string]string{
		"paymentMethodId": paymentMethodID,
		"returnUrl":       returnURL,
	}
	var out domain.ConfirmResult
	u := fmt.Sprintf("%s/v1/intents/%s/confirm", c.base, url.PathEscape(clientSecret))
	if err := c.do(ctx, http.MethodPost, u, body, &out); err != nil {
		return domain.ConfirmResult{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, u string, body, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = strings.NewReader(string(b))
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		observability.ObserveExternal("processor", method, 0, time.Since(start))
		return err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("processor", method, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return processorError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// processorError extracts the processor's error message. The wire shape is
// {"error": {"message": ...}}; a bare {"message": ...} is accepted too.
func processorError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	msg := "payment could not be processed"
	if err := json.Unmarshal(b, &payload); err == nil {
		if payload.Error.Message != "" {
			msg = payload.Error.Message
		} else if payload.Message != "" {
			msg = payload.Message
		}
	}
	return &domain.ProcessorError{Message: msg}
}
