package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	pkgerrors "github.com/iscore-hr/helpdesk-backend/pkg/errors"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(fn roundTripFunc) *Client {
	return NewClient(
		WithBaseURL("http://chatbot.local"),
		WithHTTPClient(&http.Client{Transport: fn}),
	)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestAskSendsWireRequest(t *testing.T) {
	var captured *http.Request
	var capturedBody map[string]any

	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		captured = req
		if err := json.NewDecoder(req.Body).Decode(&capturedBody); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		return jsonResponse(http.StatusOK, `{
			"answers": ["You have 12 vacation days left."],
			"confidence_scores": [0.93],
			"question_id": 7,
			"status": "ok",
			"session_id": "sess-1"
		}`), nil
	})

	resp, err := client.Ask(context.Background(), AskRequest{
		Question:  "How many vacation days do I have?",
		SessionID: "sess-1",
	})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}

	if captured.URL.String() != "http://chatbot.local/ask" {
		t.Fatalf("unexpected url %s", captured.URL)
	}
	if capturedBody["language"] != "ar" {
		t.Fatalf("expected default language ar, got %v", capturedBody["language"])
	}
	if capturedBody["top_k"] != float64(5) {
		t.Fatalf("expected default top_k 5, got %v", capturedBody["top_k"])
	}
	if len(resp.Answers) != 1 || resp.Answers[0] != "You have 12 vacation days left." {
		t.Fatalf("unexpected answers %v", resp.Answers)
	}
	if resp.QuestionID == nil || *resp.QuestionID != 7 {
		t.Fatalf("unexpected question id %v", resp.QuestionID)
	}
}

func TestAskRequiresQuestionAndSession(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})

	_, err := client.Ask(context.Background(), AskRequest{SessionID: "sess-1"})
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = client.Ask(context.Background(), AskRequest{Question: "hi"})
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAskServiceError(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusInternalServerError, `{"error":"model offline"}`), nil
	})

	_, err := client.Ask(context.Background(), AskRequest{Question: "hi", SessionID: "sess-1"})
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestCommonQuestionsPassThrough(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Query().Get("language") != "en" {
			t.Fatalf("expected language query, got %s", req.URL.RawQuery)
		}
		return jsonResponse(http.StatusOK, `{"questions":[{"id":"payroll","text":"When is payday?"}]}`), nil
	})

	questions, err := client.CommonQuestions(context.Background(), "en")
	if err != nil {
		t.Fatalf("common questions: %v", err)
	}
	if len(questions) != 1 || questions[0].ID != "payroll" {
		t.Fatalf("unexpected questions %v", questions)
	}
}

func TestCommonQuestionsFallbackWhenUnreachable(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	arabic, err := client.CommonQuestions(context.Background(), "ar")
	if err != nil {
		t.Fatalf("common questions: %v", err)
	}
	if len(arabic) != 3 || arabic[0].ID != "vacation" {
		t.Fatalf("unexpected fallback %v", arabic)
	}

	english, err := client.CommonQuestions(context.Background(), "en")
	if err != nil {
		t.Fatalf("common questions: %v", err)
	}
	if len(english) != 3 || english[0].Text != "How many vacation days do I have remaining?" {
		t.Fatalf("unexpected fallback %v", english)
	}
}

func TestCommonQuestionsFallbackOnServerError(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusServiceUnavailable, `{}`), nil
	})

	questions, err := client.CommonQuestions(context.Background(), "ar")
	if err != nil {
		t.Fatalf("common questions: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected fallback questions, got %v", questions)
	}
}

func TestSubmitFeedback(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/feedback" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		return jsonResponse(http.StatusOK, `{"message":"ok"}`), nil
	})
	if !client.SubmitFeedback(context.Background(), FeedbackRequest{QuestionID: 7, IsGood: true}) {
		t.Fatal("expected feedback to succeed")
	}

	failing := newTestClient(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	if failing.SubmitFeedback(context.Background(), FeedbackRequest{QuestionID: 7}) {
		t.Fatal("expected feedback to fail")
	}

	if failing.SubmitFeedback(context.Background(), FeedbackRequest{}) {
		t.Fatal("feedback without a question id should fail")
	}
}

func TestHealth(t *testing.T) {
	healthy := newTestClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/health" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		return jsonResponse(http.StatusOK, `{"status":"healthy"}`), nil
	})
	if !healthy.Health(context.Background()) {
		t.Fatal("expected healthy")
	}

	down := newTestClient(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	if down.Health(context.Background()) {
		t.Fatal("expected unhealthy")
	}
}

func TestNormalizeLanguage(t *testing.T) {
	cases := map[string]string{
		"en": "en", "EN": "en", " en ": "en",
		"ar": "ar", "": "ar", "fr": "ar",
	}
	for input, want := range cases {
		if got := NormalizeLanguage(input); got != want {
			t.Fatalf("normalize %q: expected %s, got %s", input, want, got)
		}
	}
}
