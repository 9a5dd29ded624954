package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Z3r0J/togetherly-backend-sub000/pkg/config"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/mylogger"
	"github.com/Z3r0J/togetherly-backend-sub000/pkg/utils"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Sender interface {
	Send(ctx context.Context, token, title, body string, data json.RawMessage) error
}

type message struct {
	To    string          `json:"to"`
	Title string          `json:"title"`
	Body  string          `json:"body"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type httpSender struct {
	endpoint string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
	tracer   trace.Tracer
}

func NewHTTPSender(cfg config.Push, logger *zap.Logger) Sender {
	return &httpSender{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "push-sender",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		logger: logger,
		tracer: otel.Tracer("infrastructure/push"),
	}
}

func (s *httpSender) Send(ctx context.Context, token, title, body string, data json.RawMessage) error {
	ctx, span := s.tracer.Start(ctx, "push.Send")
	defer span.End()

	span.SetAttributes(
		attribute.String("title", title),
	)

	payload, err := json.Marshal(message{
		To:    token,
		Title: title,
		Body:  body,
		Data:  data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push message: %w", err)
	}

	status, err := utils.ExecuteWithBreaker(s.breaker, func() (int, error) {
		return s.post(ctx, payload)
	})
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			s.logger,
			"Failed to deliver push notification",
			zap.Error(err),
		)

		return err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Push notification delivered",
		zap.Int("status", status),
	)

	return nil
}

func (s *httpSender) post(ctx context.Context, payload []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call push endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("push endpoint returned %d: %s", resp.StatusCode, snippet)
	}

	return resp.StatusCode, nil
}
