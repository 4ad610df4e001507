package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"opsportal/internal/config"
	"opsportal/internal/model"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var (
	errEmptyResponse = errors.New("advisory: empty response from model")
	jsonObject       = regexp.MustCompile(`(?s)\{.*\}`)
)

const (
	urgencySystemPrompt = "You are a business analysis expert. Analyze urgency levels for business requests."
	urgencyPrompt       = `Analyze the following business request and determine the urgency level.

%s

Consider factors like:
- Time sensitivity
- Business impact
- Financial implications
- Safety concerns

Respond with JSON in this format:
{"urgency": "Low|Normal|High|Critical", "confidence": 0.0-1.0, "reasoning": "brief explanation"}`

	notesSystemPrompt = "You are a business approval specialist. Generate professional review notes."
	notesPrompt       = `Generate professional approval notes for a %s:

Item/Purpose: %s
Amount: $%s
Department: %s

Provide brief, professional notes covering:
- Budget compliance
- Business necessity
- Approval recommendation

Keep it concise and professional.`
)

// completeFunc sends one system+user exchange and returns the reply text.
type completeFunc func(ctx context.Context, system, user string) (string, error)

// OpenAIBackend classifies requests with the chat completions API.
type OpenAIBackend struct {
	complete completeFunc
}

func NewOpenAIBackend(cfg config.OpenAIConfig) *OpenAIBackend {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	modelName := cfg.Model

	return &OpenAIBackend{
		complete: func(ctx context.Context, system, user string) (string, error) {
			resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
				Model: modelName,
				Messages: []openai.ChatCompletionMessageParamUnion{
					openai.SystemMessage(system),
					openai.UserMessage(user),
				},
			})
			if err != nil {
				return "", fmt.Errorf("chat completion failed: %w", err)
			}
			if len(resp.Choices) == 0 {
				return "", errEmptyResponse
			}
			return resp.Choices[0].Message.Content, nil
		},
	}
}

func (b *OpenAIBackend) ClassifyUrgency(ctx context.Context, text string) (UrgencyEstimate, error) {
	content, err := b.complete(ctx, urgencySystemPrompt, fmt.Sprintf(urgencyPrompt, text))
	if err != nil {
		return UrgencyEstimate{}, err
	}
	return ParseUrgencyEstimate(content)
}

func (b *OpenAIBackend) DraftApprovalNotes(ctx context.Context, nc NotesContext) (string, error) {
	department := nc.Department
	if department == "" {
		department = "N/A"
	}
	content, err := b.complete(ctx, notesSystemPrompt,
		fmt.Sprintf(notesPrompt, nc.Kind, nc.Subject, nc.Amount.StringFixed(2), department))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// ParseUrgencyEstimate extracts the JSON object from a model reply. An
// urgency outside the known levels is an error, not a default.
func ParseUrgencyEstimate(content string) (UrgencyEstimate, error) {
	raw := jsonObject.FindString(content)
	if raw == "" {
		return UrgencyEstimate{}, fmt.Errorf("advisory: no JSON object in reply")
	}
	var reply struct {
		Urgency    string  `json:"urgency"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return UrgencyEstimate{}, fmt.Errorf("advisory: invalid JSON reply: %w", err)
	}
	if strings.TrimSpace(reply.Urgency) == "" {
		return UrgencyEstimate{}, fmt.Errorf("advisory: reply has no urgency")
	}
	urgency, err := model.ParseUrgency(reply.Urgency)
	if err != nil {
		return UrgencyEstimate{}, fmt.Errorf("advisory: %w", err)
	}
	confidence := reply.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return UrgencyEstimate{Urgency: urgency, Confidence: confidence, Reasoning: reply.Reasoning}, nil
}
