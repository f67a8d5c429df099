package httpapi

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"mimino/internal/credits"
	"mimino/internal/http/handlers"
	"mimino/internal/infra"
	"mimino/internal/intent"
	"mimino/internal/media"
	"mimino/internal/orchestrator"
	"mimino/internal/providers/genai"
)

// geminiStub fakes the remote API with canned JSON per endpoint suffix.
type geminiStub struct {
	mux *http.ServeMux
}

func newGeminiStub() *geminiStub {
	return &geminiStub{mux: http.NewServeMux()}
}

func (g *geminiStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mux.ServeHTTP(w, r)
}

func (g *geminiStub) handle(pattern string, status int, body string) {
	g.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func imageEditReply(payload []byte, text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[
		{"text":%q},
		{"inlineData":{"mimeType":"image/png","data":%q}}
	]}}]}`, text, base64.StdEncoding.EncodeToString(payload))
}

func chatReply(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, text)
}

func doneVideoOperation(uri string) string {
	return fmt.Sprintf(`{"name":"operations/op-1","done":true,
		"response":{"generateVideoResponse":{"generatedSamples":[{"video":{"uri":%q}}]}}}`, uri)
}

func newTestServer(t *testing.T, stub *geminiStub, initialCredits int) *httptest.Server {
	t.Helper()

	backend := httptest.NewServer(stub)
	t.Cleanup(backend.Close)

	logger := zerolog.New(io.Discard)
	client, err := genai.NewClient(genai.Options{
		APIKey:       "test-key",
		BaseURL:      backend.URL,
		PollInterval: 5 * time.Millisecond,
		Logger:       &logger,
	})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	cfg := &infra.Config{
		AppEnv:          "test",
		AllowedOrigins:  []string{"http://localhost:5173"},
		DefaultLocale:   "en",
		RateLimitPerMin: 1000,
	}

	previews := media.NewPreviewStore()
	encoder := media.NewEncoder("image/", previews)
	ledger := credits.NewLedger(initialCredits)

	app := &handlers.App{
		Cfg:      cfg,
		Logger:   logger,
		Encoder:  encoder,
		Previews: previews,
		Editor:   orchestrator.NewEditorSurface(client, previews, logger),
		Video:    orchestrator.NewVideoSurface(client, ledger, nil, previews, logger),
		Chat: orchestrator.NewChatSurface(
			intent.NewRouter(client, logger),
			func() intent.Conversation { return client.NewChat() },
			previews,
			cfg.DefaultLocale,
			logger,
		),
		Ledger:    ledger,
		Purchaser: credits.NewPurchaser(ledger, 5*time.Millisecond, 5, logger),
		Stats:     &handlers.Stats{},
	}

	srv := httptest.NewServer(NewRouter(app))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp, decodeBody(t, resp)
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func uploadPayload(data []byte, mime string) map[string]any {
	return map[string]any{
		"data":      base64.StdEncoding.EncodeToString(data),
		"mime_type": mime,
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, newGeminiStub(), 1)
	resp, body := getJSON(t, srv.URL+"/v1/healthz")
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health = %d %v", resp.StatusCode, body)
	}
}

func TestEditorEndToEnd(t *testing.T) {
	stub := newGeminiStub()
	stub.handle("/models/gemini-2.5-flash-image:generateContent", http.StatusOK,
		imageEditReply([]byte("edited-bytes"), "Done!"))
	srv := newTestServer(t, stub, 1)

	resp, body := postJSON(t, srv.URL+"/v1/editor/image", uploadPayload([]byte("fake-jpeg"), "image/jpeg"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d %v", resp.StatusCode, body)
	}
	previewID, _ := body["preview_id"].(string)
	if previewID == "" {
		t.Fatalf("missing preview_id in %v", body)
	}

	previewResp, err := http.Get(srv.URL + "/v1/previews/" + previewID)
	if err != nil {
		t.Fatalf("GET preview: %v", err)
	}
	previewData, _ := io.ReadAll(previewResp.Body)
	previewResp.Body.Close()
	if previewResp.StatusCode != http.StatusOK || string(previewData) != "fake-jpeg" {
		t.Fatalf("preview = %d %q", previewResp.StatusCode, previewData)
	}

	resp, body = postJSON(t, srv.URL+"/v1/editor/generate", map[string]any{"instruction": "add sunglasses"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status = %d %v", resp.StatusCode, body)
	}
	outcome, _ := body["outcome"].(map[string]any)
	image, _ := outcome["image"].(string)
	if !strings.HasPrefix(image, "data:image/png;base64,") {
		t.Fatalf("outcome image = %q", image)
	}
	if outcome["text"] != "Done!" {
		t.Fatalf("outcome text = %v", outcome["text"])
	}

	resp, body = getJSON(t, srv.URL+"/v1/editor/state")
	if resp.StatusCode != http.StatusOK || body["phase"] != "succeeded" {
		t.Fatalf("state = %d %v", resp.StatusCode, body)
	}

	// The source preview is released once the edit lands.
	goneResp, err := http.Get(srv.URL + "/v1/previews/" + previewID)
	if err != nil {
		t.Fatalf("GET preview: %v", err)
	}
	goneResp.Body.Close()
	if goneResp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected released preview, got %d", goneResp.StatusCode)
	}
}

func TestEditorRejectsNonImageUpload(t *testing.T) {
	srv := newTestServer(t, newGeminiStub(), 1)

	resp, body := postJSON(t, srv.URL+"/v1/editor/image", uploadPayload([]byte("clip"), "video/mp4"))
	if resp.StatusCode != http.StatusUnprocessableEntity || body["code"] != "validation" {
		t.Fatalf("got %d %v", resp.StatusCode, body)
	}
}

func TestEditorGenerateWithoutSelection(t *testing.T) {
	srv := newTestServer(t, newGeminiStub(), 1)

	resp, body := postJSON(t, srv.URL+"/v1/editor/generate", map[string]any{"instruction": "edit"})
	if resp.StatusCode != http.StatusUnprocessableEntity || body["code"] != "validation" {
		t.Fatalf("got %d %v", resp.StatusCode, body)
	}
}

func TestVideoGenerateSpendsCredit(t *testing.T) {
	stub := newGeminiStub()
	stub.handle("/models/veo-3.0-generate-001:predictLongRunning", http.StatusOK,
		doneVideoOperation("https://files.example.com/clip.mp4"))
	srv := newTestServer(t, stub, 1)

	if resp, body := postJSON(t, srv.URL+"/v1/video/image", uploadPayload([]byte("frame"), "image/png")); resp.StatusCode != http.StatusOK {
		t.Fatalf("upload = %d %v", resp.StatusCode, body)
	}

	resp, body := postJSON(t, srv.URL+"/v1/video/generate", map[string]any{"instruction": "animate this"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate = %d %v", resp.StatusCode, body)
	}
	outcome, _ := body["outcome"].(map[string]any)
	video, _ := outcome["video"].(string)
	if !strings.Contains(video, "clip.mp4") || !strings.Contains(video, "key=test-key") {
		t.Fatalf("video uri = %q", video)
	}
	if body["credits"] != float64(0) {
		t.Fatalf("credits = %v, want 0", body["credits"])
	}
}

func TestVideoOutOfCreditsThenPurchase(t *testing.T) {
	stub := newGeminiStub()
	stub.handle("/models/veo-3.0-generate-001:predictLongRunning", http.StatusOK,
		doneVideoOperation("https://files.example.com/clip.mp4"))
	srv := newTestServer(t, stub, 0)

	if resp, body := postJSON(t, srv.URL+"/v1/video/image", uploadPayload([]byte("frame"), "image/png")); resp.StatusCode != http.StatusOK {
		t.Fatalf("upload = %d %v", resp.StatusCode, body)
	}

	resp, body := postJSON(t, srv.URL+"/v1/video/generate", map[string]any{"instruction": "animate"})
	if resp.StatusCode != http.StatusPaymentRequired || body["code"] != "purchase_required" {
		t.Fatalf("got %d %v", resp.StatusCode, body)
	}

	resp, body = postJSON(t, srv.URL+"/v1/credits/purchase", map[string]any{})
	if resp.StatusCode != http.StatusOK || body["credits"] != float64(5) {
		t.Fatalf("purchase = %d %v", resp.StatusCode, body)
	}
}

func TestVideoFailureRefund(t *testing.T) {
	stub := newGeminiStub()
	stub.handle("/models/veo-3.0-generate-001:predictLongRunning", http.StatusInternalServerError,
		`{"error":{"code":500,"status":"INTERNAL","message":"backend exploded"}}`)
	srv := newTestServer(t, stub, 1)

	if resp, body := postJSON(t, srv.URL+"/v1/video/image", uploadPayload([]byte("frame"), "image/png")); resp.StatusCode != http.StatusOK {
		t.Fatalf("upload = %d %v", resp.StatusCode, body)
	}

	resp, body := postJSON(t, srv.URL+"/v1/video/generate", map[string]any{"instruction": "animate"})
	if resp.StatusCode != http.StatusBadGateway || body["code"] != "generation_failed" {
		t.Fatalf("got %d %v", resp.StatusCode, body)
	}

	resp, body = postJSON(t, srv.URL+"/v1/video/refund", map[string]any{})
	if resp.StatusCode != http.StatusOK || body["credits"] != float64(1) {
		t.Fatalf("refund = %d %v", resp.StatusCode, body)
	}

	resp, body = postJSON(t, srv.URL+"/v1/video/refund", map[string]any{})
	if resp.StatusCode != http.StatusConflict || body["code"] != "no_refund_due" {
		t.Fatalf("second refund = %d %v", resp.StatusCode, body)
	}
}

func TestVideoEntityNotFoundAsksForKey(t *testing.T) {
	stub := newGeminiStub()
	stub.handle("/models/veo-3.0-generate-001:predictLongRunning", http.StatusNotFound,
		`{"error":{"code":404,"status":"NOT_FOUND","message":"Requested entity was not found."}}`)
	srv := newTestServer(t, stub, 1)

	if resp, body := postJSON(t, srv.URL+"/v1/video/image", uploadPayload([]byte("frame"), "image/png")); resp.StatusCode != http.StatusOK {
		t.Fatalf("upload = %d %v", resp.StatusCode, body)
	}

	resp, body := postJSON(t, srv.URL+"/v1/video/generate", map[string]any{"instruction": "animate"})
	if resp.StatusCode != http.StatusForbidden || body["code"] != "select_api_key" {
		t.Fatalf("got %d %v", resp.StatusCode, body)
	}
	if msg, _ := body["message"].(string); !strings.Contains(msg, "select a valid paid API key") {
		t.Fatalf("message = %v", body["message"])
	}
}

func TestChatEndToEnd(t *testing.T) {
	stub := newGeminiStub()
	stub.handle("/models/gemini-2.5-flash:generateContent", http.StatusOK, chatReply("Hi! How can I help?"))
	srv := newTestServer(t, stub, 1)

	resp, body := getJSON(t, srv.URL+"/v1/chat/messages")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history = %d %v", resp.StatusCode, body)
	}
	turns, _ := body["turns"].([]any)
	if len(turns) != 1 {
		t.Fatalf("opening transcript length = %d, want greeting only", len(turns))
	}
	greeting, _ := turns[0].(map[string]any)
	if text, _ := greeting["text"].(string); !strings.HasPrefix(text, "Gamarjoba!") {
		t.Fatalf("greeting = %v", greeting)
	}

	resp, body = postJSON(t, srv.URL+"/v1/chat/messages", map[string]any{"text": "hello"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("send = %d %v", resp.StatusCode, body)
	}
	turns, _ = body["turns"].([]any)
	if len(turns) != 2 {
		t.Fatalf("send returned %d turns, want 2", len(turns))
	}
	reply, _ := turns[1].(map[string]any)
	if reply["text"] != "Hi! How can I help?" {
		t.Fatalf("reply = %v", reply)
	}

	resp, body = postJSON(t, srv.URL+"/v1/chat/reset", map[string]any{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset = %d %v", resp.StatusCode, body)
	}
	turns, _ = body["turns"].([]any)
	if len(turns) != 1 {
		t.Fatalf("reset transcript length = %d, want 1", len(turns))
	}
}

func TestChatResetHonorsRequestLocale(t *testing.T) {
	srv := newTestServer(t, newGeminiStub(), 1)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/chat/reset", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Locale", "ka")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST reset: %v", err)
	}
	body := decodeBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset = %d %v", resp.StatusCode, body)
	}

	turns, _ := body["turns"].([]any)
	if len(turns) != 1 {
		t.Fatalf("reset transcript length = %d, want 1", len(turns))
	}
	turn, _ := turns[0].(map[string]any)
	if text, _ := turn["text"].(string); !strings.HasPrefix(text, "ახალი დასაწყისი!") {
		t.Fatalf("reset text = %q, want the Georgian reset message", text)
	}
}

func TestCreditsBalance(t *testing.T) {
	srv := newTestServer(t, newGeminiStub(), 1)

	resp, body := getJSON(t, srv.URL+"/v1/credits")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("credits = %d %v", resp.StatusCode, body)
	}
	if body["credits"] != float64(1) || body["bundle"] != float64(5) {
		t.Fatalf("body = %v", body)
	}
}

func TestStatsDashboard(t *testing.T) {
	stub := newGeminiStub()
	stub.handle("/models/gemini-2.5-flash:generateContent", http.StatusOK, chatReply("hey"))
	srv := newTestServer(t, stub, 1)

	if resp, body := postJSON(t, srv.URL+"/v1/chat/messages", map[string]any{"text": "hello"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("send = %d %v", resp.StatusCode, body)
	}

	resp, body := getJSON(t, srv.URL+"/v1/stats")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats = %d %v", resp.StatusCode, body)
	}
	if body["chat_turns"] != float64(1) {
		t.Fatalf("chat_turns = %v", body["chat_turns"])
	}
	if body["credit_balance"] != float64(1) {
		t.Fatalf("credit_balance = %v", body["credit_balance"])
	}
}
