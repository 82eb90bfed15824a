package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Lava-10/knowMoreQR/internal/domain"
	"github.com/Lava-10/knowMoreQR/pkg/httpclient"
	"github.com/Lava-10/knowMoreQR/pkg/logger"
)

const (
	tracerName  = "github.com/Lava-10/knowMoreQR/internal/intent"
	serviceName = "language-model"

	// UnavailableMessage is reported when no API key is configured.
	UnavailableMessage = "AI processing is currently unavailable."
)

var parseDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "intent_parse_duration_seconds",
		Help:    "Duration of language-model intent parsing in seconds",
		Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20, 30},
	},
	[]string{"outcome"},
)

// Config configures the chat completion call.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Parser turns free-text commands into a domain.ParsedCommand using an
// OpenAI-compatible chat completion endpoint. Each command costs at most one
// outbound call; the client never retries.
type Parser struct {
	client   *httpclient.CircuitBreakerClient
	endpoint string
	cfg      Config
	logger   *slog.Logger
}

// NewParser creates a parser. With an empty API key the parser stays
// disabled and every Parse reports UnavailableMessage.
func NewParser(cfg Config, l *slog.Logger) *Parser {
	p := &Parser{
		cfg:      cfg,
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		logger:   l,
	}
	if cfg.APIKey == "" {
		l.Warn("language model API key is not configured, command parsing is disabled")
		return p
	}

	httpCfg := httpclient.SingleShotConfig(cfg.Timeout)
	httpCfg.Header = http.Header{
		"Authorization": {"Bearer " + cfg.APIKey},
		"Accept":        {"application/json"},
	}
	p.client = httpclient.NewCircuitBreakerClient(
		httpclient.New(httpCfg),
		httpclient.DefaultCircuitBreakerConfig(serviceName),
		l,
	)
	return p
}

// Enabled reports whether an API key was configured.
func (p *Parser) Enabled() bool {
	return p.client != nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type modelAnswer struct {
	Intent    *string `json:"intent"`
	ItemQuery *string `json:"item_query"`
}

// Parse classifies text. It never fails: transport errors, timeouts, bad
// statuses and malformed answers come back as intent "error" with a
// diagnostic in ErrorMessage.
func (p *Parser) Parse(ctx context.Context, text string) domain.ParsedCommand {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "intent.Parse")
	defer span.End()

	log := logger.FromContextOr(ctx, p.logger)

	if !p.Enabled() {
		parseDuration.WithLabelValues("disabled").Observe(time.Since(start).Seconds())
		span.SetAttributes(attribute.Bool("intent.disabled", true))
		return domain.ParsedCommand{Intent: string(domain.IntentError), ErrorMessage: UnavailableMessage}
	}

	cmd, err := p.call(ctx, text)
	if err != nil {
		parseDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.WarnContext(ctx, "intent parsing failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)),
		)
		cmd.Intent = string(domain.IntentError)
		cmd.ErrorMessage = err.Error()
		return cmd
	}

	parseDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.String("intent.value", cmd.Intent),
		attribute.Bool("intent.has_query", cmd.ItemQuery != ""),
	)
	log.DebugContext(ctx, "intent parsed",
		slog.String("intent", cmd.Intent),
		slog.String("item_query", cmd.ItemQuery),
		slog.Duration("duration", time.Since(start)),
	)
	return cmd
}

// call performs the completion request. On a malformed answer the returned
// command still carries Raw so the caller can surface it.
func (p *Parser) call(ctx context.Context, text string) (domain.ParsedCommand, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(chatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
	})
	if err != nil {
		return domain.ParsedCommand{}, fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return domain.ParsedCommand{}, fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		if errors.Is(err, httpclient.ErrCircuitOpen) {
			return domain.ParsedCommand{}, errors.New("language model temporarily disabled after repeated failures")
		}
		return domain.ParsedCommand{}, fmt.Errorf("language model call failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.ParsedCommand{}, fmt.Errorf("language model call failed: %w", httpclient.ParseResponseError(resp, serviceName))
	}
	defer func() { _ = resp.Body.Close() }()

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return domain.ParsedCommand{}, fmt.Errorf("decode completion response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return domain.ParsedCommand{}, errors.New("language model returned no choices")
	}

	raw := strings.TrimSpace(cr.Choices[0].Message.Content)
	cmd, err := parseAnswer(raw)
	cmd.Raw = raw
	return cmd, err
}

// parseAnswer reads the model's JSON object, tolerating a markdown code
// fence around it.
func parseAnswer(raw string) (domain.ParsedCommand, error) {
	var answer modelAnswer
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &answer); err != nil {
		return domain.ParsedCommand{}, fmt.Errorf("language model answer is not valid JSON: %w", err)
	}

	cmd := domain.ParsedCommand{Intent: string(domain.IntentUnknown)}
	if answer.Intent != nil && strings.TrimSpace(*answer.Intent) != "" {
		cmd.Intent = strings.ToLower(strings.TrimSpace(*answer.Intent))
	}
	if answer.ItemQuery != nil {
		cmd.ItemQuery = strings.TrimSpace(*answer.ItemQuery)
	}
	return cmd, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the info string, e.g. "json".
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
