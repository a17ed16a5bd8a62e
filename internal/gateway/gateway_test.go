package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sahelilabs/saheli/internal/persona"
)

func TestHTTPTranscriberSendsWAVAndParsesText(t *testing.T) {
	var gotModel string
	var gotFile []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() error = %v", err)
		}
		gotModel = r.FormValue("model")
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile() error = %v", err)
		} else {
			gotFile, _ = io.ReadAll(f)
			f.Close()
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "  hello priya  "})
	}))
	defer srv.Close()

	tr := NewHTTPTranscriber(srv.URL, "key", "")
	text, err := tr.Transcribe(context.Background(), []byte{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "hello priya" {
		t.Fatalf("Transcribe() = %q, want %q", text, "hello priya")
	}
	if gotModel != "whisper-1" {
		t.Fatalf("model field = %q, want default %q", gotModel, "whisper-1")
	}
	if len(gotFile) != 4 {
		t.Fatalf("uploaded file length = %d, want 4", len(gotFile))
	}
}

func TestHTTPTranscriberRetriesRetryableStatus(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "second try"})
	}))
	defer srv.Close()

	tr := NewHTTPTranscriber(srv.URL, "", "")
	text, err := tr.Transcribe(context.Background(), []byte{0})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "second try" || calls != 2 {
		t.Fatalf("Transcribe() = %q after %d calls, want retry success", text, calls)
	}
}

func TestHTTPTranscriberDoesNotRetryClientError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tr := NewHTTPTranscriber(srv.URL, "", "")
	if _, err := tr.Transcribe(context.Background(), []byte{0}); err == nil {
		t.Fatalf("Transcribe() expected error for 401")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on 401)", calls)
	}
}

func TestHTTPTranscriberEmptyTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"text": "   "})
	}))
	defer srv.Close()

	tr := NewHTTPTranscriber(srv.URL, "", "")
	if _, err := tr.Transcribe(context.Background(), []byte{0}); !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("Transcribe() error = %v, want ErrEmptyTranscript", err)
	}
}

func TestHTTPGeneratorParsesChatCompletion(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		io.WriteString(w, `{"choices":[{"message":{"content":"Hey! Missed you."}}]}`)
	}))
	defer srv.Close()

	g := NewHTTPGenerator(srv.URL, "key", "test-model")
	reply, err := g.Generate(context.Background(), []Message{
		{Role: "system", Content: "You are Priya."},
		{Role: "user", Content: "hi"},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if reply != "Hey! Missed you." {
		t.Fatalf("Generate() = %q", reply)
	}
	if gotBody["model"] != "test-model" {
		t.Fatalf("model = %v, want test-model", gotBody["model"])
	}
	msgs, _ := gotBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("len(messages) = %d, want 2", len(msgs))
	}
}

func TestHTTPGeneratorPlainTextFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"text":"plain reply"}`)
	}))
	defer srv.Close()

	g := NewHTTPGenerator(srv.URL, "", "")
	reply, err := g.Generate(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if reply != "plain reply" {
		t.Fatalf("Generate() = %q, want %q", reply, "plain reply")
	}
}

func TestHTTPSynthesizerSendsVoiceSettings(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte("audio-bytes"))
	}))
	defer srv.Close()

	s := NewHTTPSynthesizer(srv.URL, "key", "")
	audio, err := s.Synthesize(context.Background(), "hello", persona.VoiceSettings{
		VoiceID:    "voice-priya",
		Stability:  0.55,
		Similarity: 0.75,
		Style:      0.35,
	})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(audio) != "audio-bytes" {
		t.Fatalf("audio = %q", audio)
	}
	if gotPath != "/v1/text-to-speech/voice-priya" {
		t.Fatalf("path = %q", gotPath)
	}
	vs, _ := gotBody["voice_settings"].(map[string]any)
	if vs["stability"] != 0.55 || vs["similarity_boost"] != 0.75 || vs["style"] != 0.35 {
		t.Fatalf("voice_settings = %v", vs)
	}
}

func TestHTTPSynthesizerRequiresVoiceID(t *testing.T) {
	s := NewHTTPSynthesizer("http://example.test", "", "")
	if _, err := s.Synthesize(context.Background(), "hi", persona.VoiceSettings{}); err == nil {
		t.Fatalf("Synthesize() expected error for empty voice id")
	}
}

func TestFakeGeneratorEchoesLastUserMessage(t *testing.T) {
	g := &FakeGenerator{}
	reply, err := g.Generate(context.Background(), []Message{
		{Role: "system", Content: "persona"},
		{Role: "user", Content: "old"},
		{Role: "assistant", Content: "ok"},
		{Role: "user", Content: "newest"},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(reply, "newest") {
		t.Fatalf("Generate() = %q, want echo of newest user message", reply)
	}
}
