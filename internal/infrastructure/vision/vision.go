package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bodhirag/catalog-backend/internal/cfg"
	"github.com/bodhirag/catalog-backend/internal/usecase"
	"github.com/bodhirag/catalog-backend/pkg/e"
	"github.com/bodhirag/catalog-backend/pkg/jitter"
	"github.com/bodhirag/catalog-backend/pkg/logger"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const systemPrompt = `You are a product copywriter for a handcrafted textile catalog.
Look at the product image and respond with a JSON object containing exactly two keys:
"medium_description" (2-3 sentences for a product card) and
"rich_description" (a detailed paragraph covering weave, colors, motifs and occasions).
Respond with JSON only.`

// VisionService генерирует описание продукта по изображению через
// OpenAI-совместимый vision API (Moonshot). Ответ модели ожидается в JSON
// с полями medium_description и rich_description, но парсинг деградирует
// до сырого текста, если модель не удержала формат.
type VisionService struct {
	client     openai.Client
	cfg        *cfg.VisionCfg
	maxRetries int
	logger     logger.Logger
}

func NewVisionService(cfg *cfg.VisionCfg, maxRetries int, logger logger.Logger) *VisionService {
	client := openai.NewClient(
		option.WithAPIKey(cfg.ApiKey),
		option.WithBaseURL(cfg.BaseURL),
	)

	return &VisionService{
		client:     client,
		cfg:        cfg,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// GenerateDescription выполняет запрос к vision-модели с retry-логикой
// и экспоненциальной задержкой с джиттером.
func (v *VisionService) GenerateDescription(ctx context.Context, req *usecase.GenerateDescriptionReq) (string, error) {
	const (
		op         = "VisionService.GenerateDescription"
		baseJitter = 1 * time.Second
		maxJitter  = 15 * time.Second
	)

	imageURL, err := resolveImageURL(req)
	if err != nil {
		return "", e.Wrap(op, err)
	}

	for attempt := 0; attempt < v.maxRetries; attempt++ {
		description, err := v.describe(ctx, imageURL)
		if err == nil {
			return description, nil
		}

		if attempt == v.maxRetries-1 {
			return "", e.Wrap(op, fmt.Errorf("all %d attempts failed: %w", v.maxRetries, err))
		}

		sleepTime := jitter.ExponentialBackoff(baseJitter, maxJitter, attempt, jitter.DefaultJitter)

		v.logger.Warnf("vision request failed, retrying in %v (attempt %d): %v", sleepTime, attempt+1, err)
		select {
		case <-time.After(sleepTime):
		case <-ctx.Done():
			return "", e.Wrap(op, ctx.Err())
		}
	}

	return "", e.Wrap(op, fmt.Errorf("unreachable"))
}

func (v *VisionService) describe(ctx context.Context, imageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, v.cfg.Timeout)
	defer cancel()

	resp, err := v.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(v.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart("Describe this product."),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: imageURL,
				}),
			}),
		},
		Temperature: openai.Float(v.cfg.Temperature),
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("vision model returned no choices")
	}

	return parseDescription(resp.Choices[0].Message.Content), nil
}

// parseDescription собирает итоговое описание из ответа модели.
// Порядок попыток: JSON с двумя полями, текст с разделителем "---",
// сырой текст как есть.
func parseDescription(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var parsed struct {
		Medium string `json:"medium_description"`
		Rich   string `json:"rich_description"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		parts := make([]string, 0, 2)
		if s := strings.TrimSpace(parsed.Medium); s != "" {
			parts = append(parts, s)
		}
		if s := strings.TrimSpace(parsed.Rich); s != "" {
			parts = append(parts, s)
		}
		if len(parts) > 0 {
			return strings.Join(parts, "\n\n")
		}
	}

	if parts := strings.Split(raw, "---"); len(parts) == 2 {
		return strings.TrimSpace(parts[0]) + "\n\n" + strings.TrimSpace(parts[1])
	}

	return raw
}

// resolveImageURL выбирает источник изображения: внешний URL либо data-URL
// из base64-представления.
func resolveImageURL(req *usecase.GenerateDescriptionReq) (string, error) {
	switch {
	case req == nil:
		return "", e.ErrMissingFields
	case req.ImageURL != "":
		return req.ImageURL, nil
	case req.ImageBase64 != "":
		return "data:image/jpeg;base64," + req.ImageBase64, nil
	default:
		return "", e.ErrMissingFields
	}
}
