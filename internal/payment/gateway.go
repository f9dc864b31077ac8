package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tailorshop-be/internal/logger"

	"go.uber.org/zap"
)

type Gateway interface {
	Provider() Provider
	Create(ctx context.Context, req StartRequest, callbackURL string) (*CreateResponse, error)
}

// Executor is implemented by providers that need a server-side capture
// after the customer approves.
type Executor interface {
	Execute(ctx context.Context, providerPaymentID string) (*ExecuteResponse, error)
}

// Verifier is implemented by providers that report the result on the
// return redirect. The token it carries is confirmed with the provider
// before the payment is trusted.
type Verifier interface {
	Verify(ctx context.Context, p *Payment, token string) (*ExecuteResponse, error)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

// doJSON posts body as JSON and decodes a 2xx reply into out.
func doJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body, out any) error {
	log := logger.FromCtx(ctx).With(zap.String("url", url))

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Error("provider request failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error("provider returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", respBody),
		)
		return fmt.Errorf("%w: status %d: %s", ErrProviderRejection, resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		log.Error("failed decoding provider response", zap.Error(err))
		return err
	}
	return nil
}
