package gemini

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"newsagent/internal/ports"
)

func TestAnalyze(t *testing.T) {
	t.Parallel()

	var gotPath, gotKey string
	var gotBody generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "part one "}, {"text": "part two"}]}}]}`))
	}))
	defer server.Close()

	c := NewClient("api-key", server.URL)
	got, err := c.Analyze(context.Background(), ports.AnalysisRequest{
		Model:           "test-model",
		SystemPrompt:    "be thorough",
		UserPrompt:      "summarize",
		Payload:         "DATA",
		MaxOutputTokens: 1000,
		Temperature:     0.7,
		ThinkingBudget:  512,
	})
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	if got != "part one part two" {
		t.Fatalf("candidate parts must be joined, got %q", got)
	}
	if gotPath != "/models/test-model:generateContent" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotKey != "api-key" {
		t.Fatalf("unexpected api key header: %s", gotKey)
	}
	if gotBody.SystemInstruction == nil || gotBody.SystemInstruction.Parts[0].Text != "be thorough" {
		t.Fatalf("system instruction missing: %+v", gotBody.SystemInstruction)
	}
	prompt := gotBody.Contents[0].Parts[0].Text
	if !strings.HasPrefix(prompt, "summarize\n\nAnalyze this data:\nDATA") {
		t.Fatalf("unexpected prompt composition: %q", prompt)
	}
	if gotBody.GenerationConfig.ThinkingConfig == nil || gotBody.GenerationConfig.ThinkingConfig.ThinkingBudget != 512 {
		t.Fatalf("thinking budget missing: %+v", gotBody.GenerationConfig)
	}
}

func TestAnalyzeNoCandidates(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	c := NewClient("api-key", server.URL)
	_, err := c.Analyze(context.Background(), ports.AnalysisRequest{Model: "test-model"})
	if err == nil || !strings.Contains(err.Error(), "no candidates") {
		t.Fatalf("expected no-candidates error, got %v", err)
	}
}

func TestAnalyzeServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "quota exceeded"}}`))
	}))
	defer server.Close()

	c := NewClient("api-key", server.URL)
	_, err := c.Analyze(context.Background(), ports.AnalysisRequest{Model: "test-model"})
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("error must carry response detail, got %v", err)
	}
}

func TestSynthesize(t *testing.T) {
	t.Parallel()

	pcm := []byte{1, 2, 3, 4, 5, 6}
	encoded := base64.StdEncoding.EncodeToString(pcm)

	var gotBody generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"candidates": [{"content": {"parts": [{"inlineData": {"mimeType": "audio/L16", "data": "` + encoded + `"}}]}}]}`))
	}))
	defer server.Close()

	tts := NewTTS(NewClient("api-key", server.URL))
	wav, err := tts.Synthesize(context.Background(), ports.NarrationRequest{
		Model:            "tts-model",
		Voice:            "TestVoice",
		ToneInstructions: "Read calmly",
		Text:             "hello",
	})
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}

	if gotBody.GenerationConfig.ResponseModalities[0] != "AUDIO" {
		t.Fatalf("audio modality missing: %+v", gotBody.GenerationConfig)
	}
	if gotBody.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName != "TestVoice" {
		t.Fatalf("voice missing: %+v", gotBody.GenerationConfig.SpeechConfig)
	}
	if gotBody.Contents[0].Parts[0].Text != "Read calmly: hello" {
		t.Fatalf("tone must prefix the text, got %q", gotBody.Contents[0].Parts[0].Text)
	}

	if len(wav) != 44+len(pcm) {
		t.Fatalf("unexpected wav size: %d", len(wav))
	}
	if string(wav[:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Fatalf("missing riff header: %q", wav[:12])
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != pcmSampleRate {
		t.Fatalf("unexpected sample rate: %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != uint32(len(pcm)) {
		t.Fatalf("unexpected data length: %d", got)
	}
	if string(wav[44:]) != string(pcm) {
		t.Fatal("pcm payload must follow the header unchanged")
	}
}

func TestSynthesizeRequiresVoice(t *testing.T) {
	t.Parallel()

	tts := NewTTS(NewClient("api-key", ""))
	_, err := tts.Synthesize(context.Background(), ports.NarrationRequest{Model: "tts-model"})
	if err == nil {
		t.Fatal("expected error for missing voice")
	}
}
