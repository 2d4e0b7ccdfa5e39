package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/iscore-hr/helpdesk-backend/pkg/errors"
)

const (
	defaultBaseURL              = "http://localhost:5000"
	defaultTimeout              = 10 * time.Second
	defaultTopK                 = 5
	responseBodyReadLimit int64 = 1024

	// LanguageArabic and LanguageEnglish are the wire codes the FAQ service
	// understands. Arabic is the service default.
	LanguageArabic  = "ar"
	LanguageEnglish = "en"
)

// Client proxies the FAQ chatbot microservice.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured service base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a chatbot client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// AskRequest carries one question to the FAQ service.
type AskRequest struct {
	Question         string `json:"question"`
	Language         string `json:"language"`
	SessionID        string `json:"session_id"`
	IsCommonQuestion bool   `json:"is_common_question"`
	TopK             int    `json:"top_k"`
}

// AskResponse is the FAQ service answer payload.
type AskResponse struct {
	Answers          []string  `json:"answers"`
	ConfidenceScores []float64 `json:"confidence_scores"`
	QuestionID       *int      `json:"question_id"`
	Status           string    `json:"status"`
	SessionID        string    `json:"session_id"`
}

// CommonQuestion is one predefined question for the dropdown.
type CommonQuestion struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// FeedbackRequest rates one answered question.
type FeedbackRequest struct {
	QuestionID int  `json:"question_id"`
	IsGood     bool `json:"is_good"`
}

// Ask forwards a question and returns the service answer.
func (c *Client) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "question is required")
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	req.Language = NormalizeLanguage(req.Language)
	if req.TopK < 1 {
		req.TopK = defaultTopK
	}

	var out AskResponse
	if err := c.post(ctx, "ask", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CommonQuestions fetches the dropdown questions for the language. When the
// service is unreachable it falls back to a canned list so the widget still
// renders.
func (c *Client) CommonQuestions(ctx context.Context, language string) ([]CommonQuestion, error) {
	language = NormalizeLanguage(language)

	endpoint := c.buildURL("common-questions") + "?language=" + url.QueryEscape(language)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build common questions request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return FallbackQuestions(language), nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return FallbackQuestions(language), nil
	}

	var payload struct {
		Questions []CommonQuestion `json:"questions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return FallbackQuestions(language), nil
	}
	if payload.Questions == nil {
		return []CommonQuestion{}, nil
	}
	return payload.Questions, nil
}

// SubmitFeedback records whether an answer helped. Returns false without an
// error when the service rejects or is unreachable.
func (c *Client) SubmitFeedback(ctx context.Context, feedback FeedbackRequest) bool {
	if feedback.QuestionID == 0 {
		return false
	}
	err := c.post(ctx, "feedback", feedback, nil)
	return err == nil
}

// Health reports whether the FAQ service answers its health endpoint.
func (c *Client) Health(ctx context.Context) bool {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL("health"), nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal chatbot payload")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path), bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build chatbot request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute chatbot request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "chatbot request failed")
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode chatbot response")
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	return strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// NormalizeLanguage maps arbitrary input to a supported wire code. Arabic is
// the default, matching the FAQ service.
func NormalizeLanguage(language string) string {
	if strings.EqualFold(strings.TrimSpace(language), LanguageEnglish) {
		return LanguageEnglish
	}
	return LanguageArabic
}

// FallbackQuestions is the canned dropdown shown when the FAQ service is down.
func FallbackQuestions(language string) []CommonQuestion {
	if NormalizeLanguage(language) == LanguageArabic {
		return []CommonQuestion{
			{ID: "vacation", Text: "كم لي من إجازات متبقية؟"},
			{ID: "department", Text: "أريد تغيير قسمي"},
			{ID: "resignation", Text: "أريد تقديم استقالة"},
		}
	}
	return []CommonQuestion{
		{ID: "vacation", Text: "How many vacation days do I have remaining?"},
		{ID: "department", Text: "I want to change my department"},
		{ID: "resignation", Text: "I want to submit a resignation"},
	}
}
