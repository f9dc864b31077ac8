package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"tailorshop-be/internal/config"
	"tailorshop-be/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// onlineGateway opens a hosted card/wallet page. The provider takes a form
// post and answers with the page URL.
type onlineGateway struct {
	initURL     string
	validateURL string
	storeID     string
	storeKey    string
	httpClient  *http.Client
}

func NewOnlineGateway(cfg *config.Config) *onlineGateway {
	return &onlineGateway{
		initURL:     cfg.PaymentInitURL,
		validateURL: cfg.PaymentValidateURL,
		storeID:     cfg.PaymentStoreID,
		storeKey:    cfg.PaymentStoreKey,
		httpClient:  newHTTPClient(),
	}
}

func (o *onlineGateway) Provider() Provider { return ProviderOnline }

type onlineInitResponse struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	GatewayPageURL string `json:"GatewayPageURL"`
}

// Create uses callbackURL as the base of the success, fail and cancel
// return URLs.
func (o *onlineGateway) Create(ctx context.Context, req StartRequest, callbackURL string) (*CreateResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("provider", string(ProviderOnline)),
		zap.String("order_number", req.OrderNumber),
	)

	if o.initURL == "" {
		return nil, ErrNotConfigured
	}

	form := url.Values{
		"store_id":         {o.storeID},
		"store_passwd":     {o.storeKey},
		"total_amount":     {req.Amount.StringFixed(2)},
		"currency":         {"BDT"},
		"tran_id":          {req.Reference},
		"success_url":      {callbackURL + "/success"},
		"fail_url":         {callbackURL + "/failure"},
		"cancel_url":       {callbackURL + "/cancel"},
		"cus_name":         {req.CustomerName},
		"cus_email":        {req.CustomerEmail},
		"cus_phone":        {req.Phone},
		"product_name":     {"Order " + req.OrderNumber},
		"product_category": {"clothing"},
		"product_profile":  {"physical-goods"},
		"shipping_method":  {"Courier"},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.initURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		log.Error("payment init request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read payment init response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Error("payment init returned non-success status", zap.Int("status", resp.StatusCode), zap.ByteString("response", body))
		return nil, fmt.Errorf("%w: status %d", ErrProviderRejection, resp.StatusCode)
	}

	var res onlineInitResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, err
	}
	if !strings.EqualFold(res.Status, "SUCCESS") || res.GatewayPageURL == "" {
		log.Error("payment init rejected", zap.String("reason", res.FailedReason))
		return nil, fmt.Errorf("%w: %s", ErrProviderRejection, res.FailedReason)
	}

	return &CreateResponse{ProviderPaymentID: req.Reference, RedirectURL: res.GatewayPageURL}, nil
}

type onlineValidationResponse struct {
	Status     string `json:"status"`
	TranID     string `json:"tran_id"`
	ValID      string `json:"val_id"`
	Amount     string `json:"amount"`
	BankTranID string `json:"bank_tran_id"`
}

// Verify asks the provider about valID and checks that it settled p in
// full. The return form alone is never trusted.
func (o *onlineGateway) Verify(ctx context.Context, p *Payment, valID string) (*ExecuteResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("provider", string(ProviderOnline)),
		zap.String("payment_id", p.ProviderPaymentID),
	)

	if o.validateURL == "" {
		return nil, ErrNotConfigured
	}
	if valID == "" {
		return nil, ErrMissingValidation
	}

	q := url.Values{
		"val_id":       {valID},
		"store_id":     {o.storeID},
		"store_passwd": {o.storeKey},
		"format":       {"json"},
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, o.validateURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		log.Error("payment validation request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read payment validation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Error("payment validation returned non-success status", zap.Int("status", resp.StatusCode), zap.ByteString("response", body))
		return nil, fmt.Errorf("%w: status %d", ErrProviderRejection, resp.StatusCode)
	}

	var res onlineValidationResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, err
	}

	status := strings.ToUpper(res.Status)
	if status != "VALID" && status != "VALIDATED" {
		log.Warn("payment validation rejected", zap.String("status", res.Status))
		return nil, fmt.Errorf("%w: %s", ErrNotCompleted, res.Status)
	}
	if res.TranID != p.ProviderPaymentID {
		log.Warn("validated transaction belongs to another payment", zap.String("tran_id", res.TranID))
		return nil, fmt.Errorf("%w: transaction %s", ErrMismatch, res.TranID)
	}
	amount, err := decimal.NewFromString(res.Amount)
	if err != nil || !amount.Equal(p.Amount) {
		log.Warn("validated amount differs", zap.String("amount", res.Amount), zap.String("expected", p.Amount.StringFixed(2)))
		return nil, fmt.Errorf("%w: amount %s", ErrMismatch, res.Amount)
	}

	return &ExecuteResponse{
		PaymentID:         res.TranID,
		TrxID:             valID,
		TransactionStatus: status,
		Amount:            res.Amount,
	}, nil
}
