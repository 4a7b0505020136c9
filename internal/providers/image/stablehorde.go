package image

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultHordeBaseURL = "https://stablehorde.net/api/v2"
	anonymousHordeKey   = "0000000000"

	hordeEnhanceSuffix = "highly detailed, sharp focus, intricate details, masterpiece, best quality, professional, perfect composition, crystal clear, ultra detailed, photorealistic"
	hordeNegative      = "blurry, blur, low quality, bad quality, distorted, deformed, ugly, watermark, text, error, artifacts"
)

// StableHordeOptions configures the submit-poll-fetch adapter.
type StableHordeOptions struct {
	BaseURL     string
	APIKey      string
	HTTPClient  *http.Client
	MaxWait     time.Duration
	PollCap     time.Duration
	DisplayName string
}

// StableHorde generates an image through the crowdsourced Stable Horde
// cluster: submit a job, poll until done, fetch the result descriptor and
// finally the image bytes. This is the slow, higher-quality path.
type StableHorde struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	maxWait    time.Duration
	pollCap    time.Duration
	name       string
}

// NewStableHorde builds the adapter. Without an API key the anonymous pool
// key is used; without explicit limits the wall-clock ceiling is 90s and
// individual polls wait at most 5s.
func NewStableHorde(opts StableHordeOptions) *StableHorde {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = defaultHordeBaseURL
	}
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		key = anonymousHordeKey
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	maxWait := opts.MaxWait
	if maxWait <= 0 {
		maxWait = 90 * time.Second
	}
	pollCap := opts.PollCap
	if pollCap <= 0 {
		pollCap = 5 * time.Second
	}
	name := opts.DisplayName
	if name == "" {
		name = "Numidia Imagine"
	}
	return &StableHorde{
		httpClient: client,
		baseURL:    base,
		apiKey:     key,
		maxWait:    maxWait,
		pollCap:    pollCap,
		name:       name,
	}
}

type hordeParams struct {
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Steps          int     `json:"steps"`
	N              int     `json:"n"`
	SamplerName    string  `json:"sampler_name"`
	CfgScale       float64 `json:"cfg_scale"`
	Karras         bool    `json:"karras"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Seed           string  `json:"seed,omitempty"`
}

type hordeSubmit struct {
	Prompt         string      `json:"prompt"`
	Params         hordeParams `json:"params"`
	NSFW           bool        `json:"nsfw"`
	TrustedWorkers bool        `json:"trusted_workers"`
	SlowWorkers    bool        `json:"slow_workers"`
	Models         []string    `json:"models"`
}

type hordeSubmitResp struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type hordeCheckResp struct {
	Done     bool `json:"done"`
	Faulted  bool `json:"faulted"`
	WaitTime int  `json:"wait_time"`
}

type hordeStatusResp struct {
	Generations []struct {
		Img string `json:"img"`
	} `json:"generations"`
}

// Generate fulfils the Generator interface.
func (h *StableHorde) Generate(ctx context.Context, prompt string, seed int) ([]byte, error) {
	deadline := time.Now().Add(h.maxWait)

	requestID, err := h.submit(ctx, prompt, seed)
	if err != nil {
		return nil, err
	}

	if err := h.waitUntilDone(ctx, requestID, deadline); err != nil {
		return nil, err
	}

	imageURL, err := h.resultURL(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return h.fetchImage(ctx, imageURL)
}

func (h *StableHorde) submit(ctx context.Context, prompt string, seed int) (string, error) {
	payload := hordeSubmit{
		Prompt: prompt + ", " + hordeEnhanceSuffix,
		Params: hordeParams{
			Width:          384,
			Height:         384,
			Steps:          35,
			N:              1,
			SamplerName:    "k_euler",
			CfgScale:       8.5,
			Karras:         true,
			NegativePrompt: hordeNegative,
		},
		NSFW:           false,
		TrustedWorkers: true,
		SlowWorkers:    true,
		Models:         []string{"Deliberate", "Realistic Vision V5.0", "DreamShaper", "stable_diffusion"},
	}
	if seed > 0 {
		payload.Params.Seed = fmt.Sprint(seed)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", h.failure(KindProtocol, "submission payload could not be encoded")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/generate/async", bytes.NewReader(body))
	if err != nil {
		return "", h.failure(KindNetwork, h.name+" submission request could not be built")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", h.apiKey)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", h.failure(KindTimeout, h.name+" timed out while accepting the job. Please try again.")
		}
		return "", h.failure(KindNetwork, h.name+" could not be reached. Please try again.")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", h.failure(KindUnexpectedStatus,
			fmt.Sprintf("%s rejected the job (Error %d). Please try again or adjust your prompt.", h.name, resp.StatusCode))
	}
	var out hordeSubmitResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.ID == "" {
		return "", h.failure(KindProtocol, h.name+" did not return a request id. Please try again.")
	}
	return out.ID, nil
}

func (h *StableHorde) waitUntilDone(ctx context.Context, requestID string, deadline time.Time) error {
	for time.Now().Before(deadline) {
		check, err := h.check(ctx, requestID)
		switch {
		case err != nil:
			// Transient check failure; back off briefly and retry.
			if err := h.sleep(ctx, 3*time.Second); err != nil {
				return err
			}
		case check.Faulted:
			return h.failure(KindProtocol, h.name+" faulted while generating. Please try again or adjust your prompt.")
		case check.Done:
			return nil
		default:
			wait := time.Duration(check.WaitTime) * time.Second
			if wait > h.pollCap || wait <= 0 {
				wait = h.pollCap
			}
			if err := h.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	return h.failure(KindTimeout,
		fmt.Sprintf("%s generation timed out after %d seconds. Please try again.", h.name, int(h.maxWait.Seconds())))
}

func (h *StableHorde) check(ctx context.Context, requestID string) (*hordeCheckResp, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/generate/check/"+requestID, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("check status %d", resp.StatusCode)
	}
	var out hordeCheckResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *StableHorde) resultURL(ctx context.Context, requestID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/generate/status/"+requestID, nil)
	if err != nil {
		return "", h.failure(KindNetwork, h.name+" status request could not be built")
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", h.failure(KindNetwork, h.name+" could not be reached for the result. Please try again.")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", h.failure(KindUnexpectedStatus,
			fmt.Sprintf("%s could not deliver the result (Error %d). Please try again.", h.name, resp.StatusCode))
	}
	var out hordeStatusResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", h.failure(KindProtocol, h.name+" returned an unreadable result. Please try again.")
	}
	if len(out.Generations) == 0 || strings.TrimSpace(out.Generations[0].Img) == "" {
		return "", h.failure(KindProtocol, "Could not retrieve generated image. Please try again.")
	}
	return out.Generations[0].Img, nil
}

func (h *StableHorde) fetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, h.failure(KindNetwork, h.name+" image request could not be built")
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, h.failure(KindNetwork, h.name+" image download failed. Please try again.")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, h.failure(KindUnavailable,
			fmt.Sprintf("%s image download failed (Error %d). Please try again.", h.name, resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, h.failure(KindNetwork, h.name+" image download was interrupted. Please try again.")
	}
	if len(body) == 0 {
		return nil, h.failure(KindProtocol, h.name+" delivered an empty image. Please try again.")
	}
	return body, nil
}

func (h *StableHorde) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return h.failure(KindTimeout, h.name+" generation was cancelled before completion.")
	case <-timer.C:
		return nil
	}
}

func (h *StableHorde) failure(kind ErrorKind, msg string) *ProviderError {
	return &ProviderError{Provider: h.name, Kind: kind, Message: msg}
}

var _ Generator = (*StableHorde)(nil)
