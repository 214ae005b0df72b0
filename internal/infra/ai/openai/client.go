package openai

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/sashabaranov/go-openai"
    "github.com/sirupsen/logrus"

    domai "github.com/bryanwahyu/quantum-vault/internal/domain/ai"
    "github.com/bryanwahyu/quantum-vault/internal/domain/vulns"
    "github.com/bryanwahyu/quantum-vault/internal/infra/ai/prompt"
)

const (
    defaultModel     = "gpt-4o-mini"
    defaultMaxTokens = 2048
)

type Client struct {
    *openai.Client
    Model     string
    MaxTokens int
    // Timeout bounds one completion call when non-zero.
    Timeout time.Duration
    log     *logrus.Entry
}

// NewClient builds a client; baseURL is optional and points at any
// OpenAI-compatible endpoint.
func NewClient(apiKey, model, baseURL string, maxTokens int, log *logrus.Entry) *Client {
    cfg := openai.DefaultConfig(apiKey)
    if baseURL != "" {
        cfg.BaseURL = baseURL
    }
    if maxTokens <= 0 {
        maxTokens = defaultMaxTokens
    }
    if log == nil {
        log = logrus.NewEntry(logrus.StandardLogger())
    }
    return &Client{
        Client:    openai.NewClientWithConfig(cfg),
        Model:     model,
        MaxTokens: maxTokens,
        log:       log.WithField("component", "openai"),
    }
}

func (c *Client) SuggestRemediation(ctx context.Context, req domai.RemediationRequest) (domai.Remediation, error) {
    content, err := c.complete(ctx, prompt.GetRemediationSystemPrompt(), prompt.GetRemediationUserPrompt(req))
    if err != nil {
        return domai.Remediation{}, err
    }
    var out prompt.RemediationOutput
    if err := json.Unmarshal([]byte(content), &out); err != nil {
        return domai.Remediation{}, fmt.Errorf("%w: %v", domai.ErrMalformedResponse, err)
    }
    if strings.TrimSpace(out.PlainLanguageSummary) == "" && strings.TrimSpace(out.DeveloperCodeSnippet) == "" {
        return domai.Remediation{}, fmt.Errorf("%w: empty remediation", domai.ErrMalformedResponse)
    }
    return domai.Remediation{
        PlainLanguageSummary: out.PlainLanguageSummary,
        DeveloperCodeSnippet: out.DeveloperCodeSnippet,
    }, nil
}

func (c *Client) SimulateScan(ctx context.Context, url string) (domai.ScanHypothesis, error) {
    content, err := c.complete(ctx, prompt.GetScanSystemPrompt(), prompt.GetScanUserPrompt(url))
    if err != nil {
        return domai.ScanHypothesis{}, err
    }
    var out prompt.ScanOutput
    if err := json.Unmarshal([]byte(content), &out); err != nil {
        return domai.ScanHypothesis{}, fmt.Errorf("%w: %v", domai.ErrMalformedResponse, err)
    }
    return toHypothesis(out)
}

func toHypothesis(out prompt.ScanOutput) (domai.ScanHypothesis, error) {
    h := domai.ScanHypothesis{Summary: out.Summary}
    for _, vc := range out.VulnerabilityChecks {
        g := vulns.CheckGroup{Type: vulns.ParseCheckType(vc.Type)}
        for _, ch := range vc.Checks {
            res, err := vulns.NewCheckResult(ch.Name, ch.Passed, ch.RiskLevel, ch.Details)
            if err != nil {
                return domai.ScanHypothesis{}, fmt.Errorf("%w: %w", domai.ErrMalformedResponse, err)
            }
            g.Checks = append(g.Checks, res)
        }
        h.Groups = append(h.Groups, g)
    }
    return h, nil
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
    model := c.Model
    if model == "" {
        model = defaultModel
    }
    req := openai.ChatCompletionRequest{
        Model: model,
        ResponseFormat: &openai.ChatCompletionResponseFormat{
            Type: openai.ChatCompletionResponseFormatTypeJSONObject,
        },
        Messages: []openai.ChatCompletionMessage{
            {Role: openai.ChatMessageRoleSystem, Content: system},
            {Role: openai.ChatMessageRoleUser, Content: user},
        },
    }
    // For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
    if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
        req.MaxCompletionTokens = c.MaxTokens
    } else {
        req.MaxTokens = c.MaxTokens
    }

    if c.Timeout > 0 {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, c.Timeout)
        defer cancel()
    }
    resp, err := c.CreateChatCompletion(ctx, req)
    if err != nil {
        if isQuota(err) {
            c.log.WithError(err).Warn("provider quota exceeded")
            return "", fmt.Errorf("%w: %v", domai.ErrQuotaExceeded, err)
        }
        return "", fmt.Errorf("failed to create chat completion: %w", err)
    }
    if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
        return "", domai.ErrEmptyResponse
    }
    c.log.WithFields(logrus.Fields{
        "model":             model,
        "prompt_tokens":     resp.Usage.PromptTokens,
        "completion_tokens": resp.Usage.CompletionTokens,
    }).Debug("chat completion done")
    return resp.Choices[0].Message.Content, nil
}

func isQuota(err error) bool {
    var apiErr *openai.APIError
    if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
        return true
    }
    var reqErr *openai.RequestError
    return errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests
}
