package enrich

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const (
	openaiChatModel    = openai.GPT4oMini
	openaiWhisperModel = "whisper-1"
	openaiMaxTokens    = 1024
	openaiTemperature  = 0.7
)

// OpenAIProvider talks to the OpenAI API through the official-style SDK:
// Whisper for transcription, chat completions for title and summary text.
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a provider authenticated with the given API key.
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
	}
}

func (p *OpenAIProvider) Name() string {
	return ProviderOpenAI
}

// Transcribe sends the audio file as multipart to the Whisper endpoint.
func (p *OpenAIProvider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openaiWhisperModel,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatText,
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription failed: %w", err)
	}
	return resp.Text, nil
}

// Complete sends a single-turn chat completion.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openaiChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   openaiMaxTokens,
		Temperature: openaiTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

var _ Provider = (*OpenAIProvider)(nil)
