package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// TranscribeTimeout is the timeout for voice transcription.
const TranscribeTimeout = 15 * time.Second

// ErrTranscribeTimeout indicates the Gemini API call timed out.
var ErrTranscribeTimeout = errors.New("voice transcription timed out")

// ErrNoSpeech indicates no speech could be transcribed from the audio.
var ErrNoSpeech = errors.New("no speech detected in voice message")

const transcribePrompt = `Transcribe this voice message verbatim.
Return ONLY the transcribed text with no additional commentary, labels or markdown formatting.
If the audio contains no intelligible speech, return an empty response.`

// TranscribeVoice converts a voice message into plain text so it can be
// relayed to the assistant chat endpoint.
func (c *Client) TranscribeVoice(ctx context.Context, audioBytes []byte, mimeType string) (string, error) {
	if len(audioBytes) == 0 {
		return "", fmt.Errorf("audio data is required")
	}

	if mimeType == "" {
		mimeType = "audio/ogg"
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, TranscribeTimeout)
	defer cancel()

	resp, err := c.generator.GenerateContent(timeoutCtx, ModelName, []*genai.Content{
		{
			Parts: []*genai.Part{
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: audioBytes}},
				{Text: transcribePrompt},
			},
		},
	}, nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", ErrTranscribeTimeout
		}
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from Gemini")
	}

	var textContent string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			textContent += part.Text
		}
	}

	transcript := cleanTranscript(textContent)
	if transcript == "" {
		return "", ErrNoSpeech
	}

	return transcript, nil
}

// cleanTranscript strips markdown fences the model sometimes wraps its
// output in and collapses whitespace.
func cleanTranscript(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.Join(strings.Fields(text), " ")
}
