package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultPollinationsBaseURL = "https://image.pollinations.ai"

// PollinationsOptions configures the direct-fetch adapter. DisplayName and
// AltName are cosmetic and appear only in failure messages; AltName points the
// user at the slower backend when this one is struggling.
type PollinationsOptions struct {
	BaseURL       string
	HTTPClient    *http.Client
	Timeout       time.Duration
	DisplayName   string
	AltName       string
	EnhanceSuffix string
}

// Pollinations generates an image with a single GET that encodes the prompt
// into the URL path. This is the fast path: one request, bytes back.
type Pollinations struct {
	httpClient *http.Client
	baseURL    string
	name       string
	altName    string
	suffix     string
}

// NewPollinations builds the adapter with sane defaults (30s request timeout).
func NewPollinations(opts PollinationsOptions) *Pollinations {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = defaultPollinationsBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	name := opts.DisplayName
	if name == "" {
		name = "Numidia Creative"
	}
	alt := opts.AltName
	if alt == "" {
		alt = "Numidia Imagine"
	}
	return &Pollinations{
		httpClient: client,
		baseURL:    base,
		name:       name,
		altName:    alt,
		suffix:     strings.TrimSpace(opts.EnhanceSuffix),
	}
}

// Generate fulfils the Generator interface.
func (p *Pollinations) Generate(ctx context.Context, prompt string, seed int) ([]byte, error) {
	text := prompt
	if p.suffix != "" {
		text = text + ", " + p.suffix
	}
	endpoint := fmt.Sprintf("%s/prompt/%s?seed=%d&width=1024&height=1024&nologo=true",
		p.baseURL, url.PathEscape(text), seed)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, p.failure(KindNetwork, fmt.Sprintf("%s request could not be built", p.name))
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, p.failure(KindTimeout,
				fmt.Sprintf("%s is experiencing high demand and timed out. Please switch to %s for faster generation!", p.name, p.altName))
		}
		return nil, p.failure(KindNetwork,
			fmt.Sprintf("%s is currently overloaded. Please try %s instead!", p.name, p.altName))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, p.failure(KindNetwork,
				fmt.Sprintf("%s dropped the connection mid-transfer. Please try %s instead!", p.name, p.altName))
		}
		if len(body) == 0 {
			return nil, p.failure(KindProtocol,
				fmt.Sprintf("%s returned an empty image. Please try %s instead!", p.name, p.altName))
		}
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, p.failure(KindRateLimited,
			fmt.Sprintf("%s is currently experiencing high demand. Please try again in a moment, or switch to %s for instant results!", p.name, p.altName))
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, p.failure(KindUnavailable,
			fmt.Sprintf("%s is temporarily unavailable due to high traffic. Please try %s instead!", p.name, p.altName))
	default:
		return nil, p.failure(KindUnexpectedStatus,
			fmt.Sprintf("%s is busy (Error %d). Please try %s for better availability!", p.name, resp.StatusCode, p.altName))
	}
}

func (p *Pollinations) failure(kind ErrorKind, msg string) *ProviderError {
	return &ProviderError{Provider: p.name, Kind: kind, Message: msg}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

var _ Generator = (*Pollinations)(nil)
