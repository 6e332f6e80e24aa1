// Package appscript is the client for the Google Apps Script web app
// that fronts the accounting spreadsheet. Reads go through the circuit
// breaker with retries; writes follow the script's fire-and-forget
// contract, where only uploadFile and sendDonationEmail return a
// readable result envelope.
package appscript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jeongsim/accounting-api/internal/domain"
	"github.com/jeongsim/accounting-api/internal/infra/resilience"
	"github.com/jeongsim/accounting-api/internal/port"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("appscript")

// Client wraps HTTP calls to the Apps Script endpoint.
type Client struct {
	httpClient *http.Client
	scriptURL  string
	folderID   string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	logger     *zap.Logger
}

// Ensure interface conformance
var (
	_ port.SnapshotFetcher   = (*Client)(nil)
	_ port.TransactionWriter = (*Client)(nil)
	_ port.DonationWriter    = (*Client)(nil)
	_ port.EvidenceUploader  = (*Client)(nil)
	_ port.MailSender        = (*Client)(nil)
)

// NewClient creates an Apps Script client.
func NewClient(httpClient *http.Client, scriptURL, folderID string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		scriptURL:  scriptURL,
		folderID:   folderID,
		cb:         cb,
		cfg:        cfg,
		logger:     logger,
	}
}

// actionRequest is the POST envelope the script expects: the action
// name plus the payload re-encoded as a JSON string.
type actionRequest struct {
	Action string `json:"action"`
	Data   string `json:"data"`
}

// scriptResult is the response envelope of the two actions that return
// one (uploadFile, sendDonationEmail).
type scriptResult struct {
	Result string `json:"result"`
	URL    string `json:"url,omitempty"`
	Error  string `json:"error,omitempty"`
}

// FetchSnapshot retrieves the full AppData snapshot. The _t query
// parameter busts any intermediate caching of the script URL.
func (c *Client) FetchSnapshot(ctx context.Context) (*domain.AppData, error) {
	ctx, span := tracer.Start(ctx, "AppScript.FetchSnapshot")
	defer span.End()

	var snapshot *domain.AppData

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s?action=getData&_t=%d", c.scriptURL, time.Now().UnixMilli())
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				c.logger.Error("appscript: getData request failed", zap.Error(err))
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				c.logger.Warn("appscript: getData non-2xx response",
					zap.Int("status", resp.StatusCode),
				)
				return fmt.Errorf("script returned status %d", resp.StatusCode)
			}

			var data domain.AppData
			if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
				return fmt.Errorf("failed to decode snapshot: %w", err)
			}
			snapshot = &data
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "appscript/getData", Err: err}
	}

	return snapshot, nil
}

// postAction sends a fire-and-forget action. The script runs these
// writes asynchronously and its response carries no usable status, so
// the body is drained and discarded; an error means the request never
// made it onto the wire, not that the write was rejected.
func (c *Client) postAction(ctx context.Context, action string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", action, err)
	}
	body, err := json.Marshal(actionRequest{Action: action, Data: string(data)})
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.scriptURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("appscript: post failed",
			zap.String("action", action),
			zap.Error(err),
		)
		return &domain.ErrExternalService{Service: "appscript/" + action, Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	c.logger.Debug("appscript: action sent", zap.String("action", action))
	return nil
}

// postActionResult sends an action and parses the {result} envelope.
func (c *Client) postActionResult(ctx context.Context, action string, payload any) (*scriptResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", action, err)
	}
	body, err := json.Marshal(actionRequest{Action: action, Data: string(data)})
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.scriptURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "appscript/" + action, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "appscript/" + action, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.ErrExternalService{
			Service: "appscript/" + action,
			Err:     fmt.Errorf("script returned status %d: %s", resp.StatusCode, string(raw)),
		}
	}

	var result scriptResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &domain.ErrExternalService{
			Service: "appscript/" + action,
			Err:     fmt.Errorf("unparseable script response: %s", string(raw)),
		}
	}
	return &result, nil
}

// --- Writers (implement port.TransactionWriter, port.DonationWriter) ---

func (c *Client) AddTransaction(ctx context.Context, tx domain.Transaction) error {
	ctx, span := tracer.Start(ctx, "AppScript.AddTransaction")
	defer span.End()
	return c.postAction(ctx, "addTransaction", tx)
}

func (c *Client) UpdateTransaction(ctx context.Context, tx domain.Transaction) error {
	ctx, span := tracer.Start(ctx, "AppScript.UpdateTransaction")
	defer span.End()
	return c.postAction(ctx, "updateTransaction", tx)
}

func (c *Client) AddDonation(ctx context.Context, rec domain.DonationRecord) error {
	ctx, span := tracer.Start(ctx, "AppScript.AddDonation")
	defer span.End()
	return c.postAction(ctx, "addDonation", rec)
}

// --- Evidence upload (implements port.EvidenceUploader) ---

// UploadEvidence stores a base64-encoded image in the configured Drive
// folder and returns a direct-view URL.
func (c *Client) UploadEvidence(ctx context.Context, base64Data, fileName string) (string, error) {
	ctx, span := tracer.Start(ctx, "AppScript.UploadEvidence")
	defer span.End()

	payload := map[string]string{
		"base64":   base64Data,
		"fileName": fileName,
		"folderId": c.folderID,
	}
	result, err := c.postActionResult(ctx, "uploadFile", payload)
	if err != nil {
		return "", err
	}
	if result.Result != "success" || result.URL == "" {
		return "", &domain.ErrExternalService{
			Service: "appscript/uploadFile",
			Err:     fmt.Errorf("upload rejected: %s", result.Error),
		}
	}
	return FormatDriveLink(result.URL), nil
}

// --- Mail (implements port.MailSender) ---

func (c *Client) SendDonationMail(ctx context.Context, to, subject, htmlBody string) error {
	ctx, span := tracer.Start(ctx, "AppScript.SendDonationMail")
	defer span.End()

	payload := map[string]string{
		"to":      to,
		"subject": subject,
		"body":    htmlBody,
	}
	result, err := c.postActionResult(ctx, "sendDonationEmail", payload)
	if err != nil {
		return err
	}
	if result.Result != "success" {
		return &domain.ErrExternalService{
			Service: "appscript/sendDonationEmail",
			Err:     fmt.Errorf("mail rejected: %s", result.Error),
		}
	}
	return nil
}
