package gemini

import (
	"context"
	"encoding/base64"
	"fmt"

	"newsagent/internal/ports"
)

// TTS implements ports.Narrator over the same generateContent endpoint with
// audio response modality. The API returns raw PCM which is wrapped into a
// WAV container before being handed back.
type TTS struct {
	client *Client
}

var _ ports.Narrator = (*TTS)(nil)

// NewTTS shares the analysis client's HTTP transport and key.
func NewTTS(client *Client) *TTS {
	return &TTS{client: client}
}

// Synthesize converts text to a WAV payload using the configured voice.
func (t *TTS) Synthesize(ctx context.Context, req ports.NarrationRequest) ([]byte, error) {
	if req.Model == "" || req.Voice == "" {
		return nil, fmt.Errorf("narration misconfigured: model and voice are required")
	}

	prompt := req.Text
	if req.ToneInstructions != "" {
		prompt = req.ToneInstructions + ": " + req.Text
	}

	body := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: req.Voice},
				},
			},
		},
	}

	resp, err := t.client.generate(ctx, req.Model, body)
	if err != nil {
		return nil, err
	}

	for _, candidate := range resp.Candidates {
		for _, p := range candidate.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			pcm, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("decode audio payload: %w", err)
			}
			return wavFromPCM(pcm, pcmSampleRate, pcmChannels, pcmSampleBytes), nil
		}
	}

	return nil, fmt.Errorf("gemini returned no audio data")
}
