package playstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/sentiscan/internal/domain/types"
	"github.com/okian/sentiscan/pkg/logger"
	"github.com/okian/sentiscan/pkg/metrics"
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseBody = 16 << 20
)

// ClientOption applies a configuration option to the HTTPSource.
type ClientOption func(*HTTPSource)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(s *HTTPSource) {
		if c != nil {
			s.client = c
		}
	}
}

// WithTimeout sets the per-request timeout on a copy of the HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(l logger.Logger) ClientOption {
	return func(s *HTTPSource) {
		if l != nil {
			s.log = l
		}
	}
}

// HTTPSource talks to a scraper sidecar over JSON:
//
//	GET {base}/apps/{id}/reviews?date=YYYY-MM-DD&count=N&lang=xx&country=yy
//
// The response body is a JSON array of RawReview records.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	log     logger.Logger
}

// NewHTTPSource creates a client for the sidecar at baseURL.
func NewHTTPSource(baseURL string, opts ...ClientOption) *HTTPSource {
	s := &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultTimeout},
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.timeout > 0 {
		c := *s.client
		c.Timeout = s.timeout
		s.client = &c
	}
	return s
}

// Fetch requests one day of reviews. Records that cannot be decoded are
// dropped and counted; a body that is not a JSON array is ErrMalformedPayload.
func (s *HTTPSource) Fetch(ctx context.Context, req FetchRequest) ([]RawReview, error) {
	q := url.Values{}
	q.Set("date", types.FormatDate(req.Date))
	if req.Count > 0 {
		q.Set("count", strconv.Itoa(req.Count))
	}
	if req.Lang != "" {
		q.Set("lang", req.Lang)
	}
	if req.Country != "" {
		q.Set("country", req.Country)
	}
	endpoint := fmt.Sprintf("%s/apps/%s/reviews?%s", s.baseURL, url.PathEscape(req.AppID), q.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, truncate(string(body), 200))
	}

	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	out := make([]RawReview, 0, len(records))
	for i, rec := range records {
		var r RawReview
		if err := json.Unmarshal(rec, &r); err != nil {
			metrics.RecordQuarantinedReview("undecodable")
			s.log.Warn(ctx, "dropping undecodable review record",
				logger.String("app_id", req.AppID), logger.Int("index", i), logger.Error(err))
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
