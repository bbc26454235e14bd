package genai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/ericogr/monster-battle/internal/constants"
	"github.com/ericogr/monster-battle/internal/logging"

	"go.opentelemetry.io/otel/attribute"
)

// GenerateCreatureImage calls the OpenAI Images API for a single image of
// the described creature and returns the raw image bytes.
func (c *Client) GenerateCreatureImage(ctx context.Context, description string) (img []byte, err error) {
	ctx, span := c.tracer.Start(ctx, "genai.generate_creature_image")
	span.SetAttributes(attribute.String("genai.model", c.opts.ImageModel))
	defer func() { endSpan(span, err) }()

	description = strings.TrimSpace(description)
	if description == "" {
		return nil, errors.New("empty creature description")
	}
	prompt := strings.ReplaceAll(c.opts.ImagePrompt, "{{description}}", description)

	payload := map[string]interface{}{
		"prompt":  prompt,
		"n":       1,
		"size":    constants.OpenAIImageSizeDefault,
		"model":   c.opts.ImageModel,
		"quality": constants.OpenAIImageQualityDefault,
	}

	var out struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
			URL     string `json:"url"`
		} `json:"data"`
	}
	if err = c.postJSON(ctx, constants.OpenAIImagesGenerationsPath, payload, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 || out.Data[0].B64JSON == "" {
		err = ErrNoImage
		return nil, err
	}
	img, err = base64.StdEncoding.DecodeString(out.Data[0].B64JSON)
	if err != nil {
		err = fmt.Errorf("failed to decode base64 image: %w", err)
		return nil, err
	}
	logging.Info("creature image generated", logging.Ctx(ctx, logging.Fields{
		constants.LogFieldModel: c.opts.ImageModel,
		"size_bytes":            len(img),
	}))
	return img, nil
}
