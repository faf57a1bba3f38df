package extraction

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"budget-buddy-backend/internal/constants"
	"budget-buddy-backend/internal/models"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// ErrMissingAPIKey is returned when no OpenAI API key was configured.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set")

// Client is a thin wrapper around the OpenAI chat completions client that
// turns receipt inputs into structured receipts.
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewClient builds an extraction client.
func NewClient(apiKey, model string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{client: &client, model: model, timeout: timeout}, nil
}

// Extract sends the submitted inputs to the model and returns the decoded,
// validated receipt.
func (c *Client) Extract(ctx context.Context, inputs []models.SubmittedInput, opts models.ExtractOptions) (*models.Receipt, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("extraction client is not initialized")
	}
	if len(opts.AllowedCategories) == 0 {
		opts.AllowedCategories = constants.DefaultCategories()
	}

	parts, texts, err := buildParts(inputs)
	if err != nil {
		return nil, err
	}
	parts = append([]openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(buildUserText(texts, opts)),
	}, parts...)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(parts),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("call OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("model returned no choices")
	}
	log.Printf("receipt extraction took %s (%d input(s))", time.Since(started).Round(time.Millisecond), len(inputs))

	return decodeReceipt(resp.Choices[0].Message.Content, opts.AllowedCategories)
}

// buildParts converts the submitted inputs into chat content parts. Images go
// through the optimizer and become data URIs, PDFs become file parts, and
// pasted text is returned separately so it lands in the prompt body.
func buildParts(inputs []models.SubmittedInput) ([]openai.ChatCompletionContentPartUnionParam, []string, error) {
	var parts []openai.ChatCompletionContentPartUnionParam
	var texts []string
	for _, in := range inputs {
		switch {
		case in.Kind == models.InputText:
			texts = append(texts, in.Text)
		case in.ContentType == "application/pdf":
			parts = append(parts, openai.FileContentPart(openai.ChatCompletionContentPartFileFileParam{
				FileData: openai.String(dataURI(in.Data, in.ContentType)),
				Filename: openai.String(in.Filename),
			}))
		case strings.HasPrefix(in.ContentType, "image/"):
			data, ct := OptimizeImage(in.Data, in.ContentType)
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: dataURI(data, ct),
			}))
		default:
			return nil, nil, fmt.Errorf("unsupported content type %q", in.ContentType)
		}
	}
	return parts, texts, nil
}

func dataURI(data []byte, contentType string) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
