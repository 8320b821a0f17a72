// Package notify implements the OperatorNotifier port. PRO activation
// is a manual process: the service only has to get the request in front
// of a human operator.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/financeiro-leve/ledger-go/internal/domain"
	"github.com/financeiro-leve/ledger-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("notify")

// WebhookNotifier POSTs activation notices to an operator webhook
// (Slack, Discord, or any endpoint accepting JSON).
type WebhookNotifier struct {
	httpClient *http.Client
	webhookURL string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	logger     *zap.Logger
}

// NewWebhookNotifier creates a webhook-backed notifier.
func NewWebhookNotifier(httpClient *http.Client, webhookURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		httpClient: httpClient,
		webhookURL: webhookURL,
		cb:         cb,
		cfg:        cfg,
		logger:     logger,
	}
}

// NotifyActivation delivers the activation notice to the operator.
func (n *WebhookNotifier) NotifyActivation(ctx context.Context, notice domain.ActivationNotice) error {
	ctx, span := tracer.Start(ctx, "WebhookNotifier.NotifyActivation")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", notice.UserID))

	err := resilience.Do(ctx, n.cb, n.cfg, func() error {
		payload, err := json.Marshal(notice)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		n.logger.Error("notify: webhook delivery failed",
			zap.String("user_id", notice.UserID),
			zap.Error(err),
		)
		return &domain.ErrExternalService{Service: "notify", Err: err}
	}

	n.logger.Info("notify: activation notice delivered", zap.String("user_id", notice.UserID))
	return nil
}

// LogNotifier logs activation notices instead of delivering them.
// Used when no webhook is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyActivation logs the notice at warn level so it stands out.
func (n *LogNotifier) NotifyActivation(_ context.Context, notice domain.ActivationNotice) error {
	n.logger.Warn("activation requested but no operator webhook configured",
		zap.String("user_id", notice.UserID),
		zap.String("email", notice.Email),
	)
	return nil
}
