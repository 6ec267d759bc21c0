package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/docuseal-embed/internal/docuseal"
	"github.com/GriffinCanCode/docuseal-embed/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/docuseal-embed/internal/infrastructure/tracing"
	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/saintfish/chardet"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

const (
	// maxBodySize bounds how much of a form page is read
	maxBodySize = 1 << 20
	// fallbackCharset is what x/net/html/charset reports when it found nothing
	fallbackCharset = "windows-1252"
)

var (
	// ErrHostNotAllowed is returned for URLs outside the allowed DocuSeal hosts
	ErrHostNotAllowed = errors.New("host is not an allowed DocuSeal host")
	// ErrDisabled is returned when probing is switched off
	ErrDisabled = errors.New("probing is disabled")
)

// StatusError is a response the upstream should not have sent.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream responded %d %s", e.Status, http.StatusText(e.Status))
}

// Recorder receives probe metrics. *monitoring.Metrics implements it.
type Recorder interface {
	RecordRetry(operation string)
	RecordProbe(host, result string, duration time.Duration)
	SetBreakerState(name string, state int)
}

type nopRecorder struct{}

func (nopRecorder) RecordRetry(string)                        {}
func (nopRecorder) RecordProbe(string, string, time.Duration) {}
func (nopRecorder) SetBreakerState(string, int)               {}

// Config configures a Prober.
type Config struct {
	Enabled           bool
	Timeout           time.Duration
	RequestsPerSecond float64
	Retry             docuseal.RetryConfig
	AllowedHosts      []string
	UserAgent         string
}

// DefaultConfig returns the production probe configuration
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		Timeout:           10 * time.Second,
		RequestsPerSecond: 5,
		Retry:             docuseal.DefaultRetryConfig(),
		AllowedHosts:      docuseal.DefaultHosts,
		UserAgent:         "docuseal-embed-probe/1.0",
	}
}

// Report describes a probed form page.
type Report struct {
	URL        string  `json:"url"`
	Host       string  `json:"host"`
	Status     int     `json:"status"`
	Reachable  bool    `json:"reachable"`
	Frameable  bool    `json:"frameable"`
	BlockedBy  string  `json:"blocked_by,omitempty"`
	Title      string  `json:"title,omitempty"`
	MIME       string  `json:"mime,omitempty"`
	Charset    string  `json:"charset,omitempty"`
	Attempts   int     `json:"attempts"`
	DurationMS float64 `json:"duration_ms"`
	Breaker    string  `json:"breaker"`
}

// Prober checks that form URLs are reachable and embeddable.
type Prober struct {
	cfg      Config
	client   *resty.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
	recorder Recorder

	mu       sync.Mutex
	breakers map[string]*resilience.Breaker
}

// New creates a prober. A nil logger or recorder discards output.
func New(cfg Config, logger *zap.Logger, recorder Recorder) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig().UserAgent
	}

	// Pooled transport from retryablehttp; retries happen in docuseal.Retry
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8").
		SetTransport(retryClient.HTTPClient.Transport)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Prober{
		cfg:      cfg,
		client:   client,
		limiter:  limiter,
		logger:   logger,
		recorder: recorder,
		breakers: make(map[string]*resilience.Breaker),
	}
}

// Probe fetches rawURL and reports what an embedding page would get.
// Server errors and transport failures are retried with cfg.Retry; a host
// that keeps failing trips its circuit breaker.
func (p *Prober) Probe(ctx context.Context, rawURL string) (*Report, error) {
	if !p.cfg.Enabled {
		return nil, ErrDisabled
	}
	if !docuseal.IsValidDocuSealURL(rawURL, p.cfg.AllowedHosts...) {
		return nil, fmt.Errorf("%w: %s", ErrHostNotAllowed, rawURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &docuseal.InvalidURLError{URL: rawURL, Err: err}
	}
	host := u.Hostname()
	breaker := p.breaker(host)

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	start := time.Now()
	attempts := 0
	retry := p.cfg.Retry
	retry.ShouldRetry = retryable
	retry.OnRetry = func(attempt int, err error, wait time.Duration) {
		p.recorder.RecordRetry("probe")
		p.logger.Debug("Retrying probe",
			zap.String("host", host),
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	report, err := docuseal.Retry(ctx, retry, func(ctx context.Context) (*Report, error) {
		attempts++
		return resilience.Do(ctx, breaker, func(ctx context.Context) (*Report, error) {
			return p.fetch(ctx, rawURL)
		})
	})
	duration := time.Since(start)

	if err != nil {
		p.recorder.RecordProbe(host, "error", duration)
		p.logger.Warn("Probe failed",
			zap.String("url", rawURL),
			zap.Int("attempts", attempts),
			zap.Error(err))
		return nil, err
	}

	report.Host = host
	report.Attempts = attempts
	report.DurationMS = float64(duration.Microseconds()) / 1000
	report.Breaker = breaker.State().String()

	result := "ok"
	if !report.Reachable {
		result = "unreachable"
	} else if !report.Frameable {
		result = "blocked"
	}
	p.recorder.RecordProbe(host, result, duration)
	return report, nil
}

// BreakerState returns the breaker state for host
func (p *Prober) BreakerState(host string) resilience.State {
	return p.breaker(host).State()
}

func (p *Prober) breaker(host string) *resilience.Breaker {
	p.mu.Lock()
	defer p.mu.Unlock()

	if b, ok := p.breakers[host]; ok {
		return b
	}
	b := resilience.New(host, resilience.Settings{
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to resilience.State) {
			p.recorder.SetBreakerState(name, int(to))
			p.logger.Warn("Circuit breaker state changed",
				zap.String("host", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	p.breakers[host] = b
	return b
}

func (p *Prober) fetch(ctx context.Context, rawURL string) (*Report, error) {
	headers := map[string]string{}
	tracing.InjectTraceContext(ctx, headers)

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return nil, err
	}
	body := resp.RawBody()
	defer body.Close()

	if ok, _ := retryablehttp.DefaultRetryPolicy(ctx, resp.RawResponse, nil); ok {
		return nil, &StatusError{Status: resp.StatusCode()}
	}

	content, err := io.ReadAll(io.LimitReader(body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	report := &Report{
		URL:       rawURL,
		Status:    resp.StatusCode(),
		Reachable: resp.StatusCode() < 400,
	}
	report.Frameable, report.BlockedBy = frameable(resp.Header())

	if len(content) == 0 {
		return report, nil
	}

	contentType := resp.Header().Get("Content-Type")
	mtype := mimetype.Detect(content)
	report.MIME = mtype.String()
	report.Charset = detectCharset(content, contentType)

	if isHTML(contentType, mtype) {
		report.Title = pageTitle(content, report.Charset)
	}
	return report, nil
}

// retryable reports whether a failed attempt is worth repeating.
func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return true
	}
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return false
	}
	ok, _ := retryablehttp.DefaultRetryPolicy(context.Background(), nil, err)
	return ok
}

func frameable(header http.Header) (bool, string) {
	switch strings.ToUpper(strings.TrimSpace(header.Get("X-Frame-Options"))) {
	case "DENY", "SAMEORIGIN":
		return false, "X-Frame-Options"
	}
	for _, directive := range strings.Split(header.Get("Content-Security-Policy"), ";") {
		fields := strings.Fields(directive)
		if len(fields) > 0 && strings.EqualFold(fields[0], "frame-ancestors") {
			if len(fields) == 1 || (len(fields) == 2 && (fields[1] == "'none'" || fields[1] == "'self'")) {
				return false, "Content-Security-Policy"
			}
		}
	}
	return true, ""
}

// detectCharset trusts a BOM, the Content-Type header or a meta declaration
// and falls back to statistical detection.
func detectCharset(content []byte, contentType string) string {
	_, name, certain := charset.DetermineEncoding(content, contentType)
	if !certain && name == fallbackCharset {
		if result, err := chardet.NewHtmlDetector().DetectBest(content); err == nil && result.Confidence >= 50 {
			name = result.Charset
		}
	}
	return strings.ToLower(name)
}

func isHTML(contentType string, mtype *mimetype.MIME) bool {
	return strings.Contains(strings.ToLower(contentType), "html") || mtype.Is("text/html")
}

func pageTitle(content []byte, encoding string) string {
	var reader io.Reader = bytes.NewReader(content)
	if decoded, err := charset.NewReaderLabel(encoding, reader); err == nil {
		reader = decoded
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("head title").First().Text())
}
