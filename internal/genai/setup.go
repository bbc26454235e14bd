package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ericogr/monster-battle/internal/constants"
	"github.com/ericogr/monster-battle/internal/game"
	"github.com/ericogr/monster-battle/internal/logging"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/unicode/norm"
)

// movesPerCreature is the fixed size of every move list.
const movesPerCreature = 4

type movePayload struct {
	Name        string `json:"name" validate:"required"`
	Type        string `json:"type" validate:"required,element"`
	Power       int    `json:"power" validate:"gt=0"`
	Accuracy    int    `json:"accuracy" validate:"gte=0,lte=100"`
	Description string `json:"description"`
}

type creaturePayload struct {
	Name        string        `json:"name" validate:"required"`
	Type        string        `json:"type" validate:"required,element"`
	MaxHP       int           `json:"max_hp" validate:"gt=0"`
	Attack      int           `json:"attack" validate:"gt=0"`
	Defense     int           `json:"defense" validate:"gt=0"`
	Speed       int           `json:"speed" validate:"gt=0"`
	Description string        `json:"description" validate:"required"`
	Moves       []movePayload `json:"moves" validate:"len=4,dive"`
}

type setupPayload struct {
	Player   creaturePayload `json:"player"`
	Opponent creaturePayload `json:"opponent"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("element", func(fl validator.FieldLevel) bool {
		_, err := game.ParseElementType(fl.Field().String())
		return err == nil
	})
	return v
}

// FetchBattleSetup asks the chat model for a player and an opponent
// template. The answer is constrained by a strict JSON schema and checked
// again after decoding; any mismatch is an error.
func (c *Client) FetchBattleSetup(ctx context.Context) (setup game.BattleSetup, err error) {
	ctx, span := c.tracer.Start(ctx, "genai.fetch_battle_setup")
	span.SetAttributes(attribute.String("genai.model", c.opts.ChatModel))
	defer func() { endSpan(span, err) }()

	payload := map[string]interface{}{
		"model": c.opts.ChatModel,
		"messages": []map[string]string{
			{"role": "system", "content": c.opts.SystemPrompt},
			{"role": "user", "content": c.opts.SetupPrompt},
		},
		"response_format": map[string]interface{}{
			"type": "json_schema",
			"json_schema": map[string]interface{}{
				"name":   "battle_setup",
				"strict": true,
				"schema": setupSchema(),
			},
		},
	}

	var out struct {
		Choices []struct {
			FinishReason string `json:"finish_reason"`
			Message      struct {
				Content string `json:"content"`
				Refusal string `json:"refusal"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err = c.postJSON(ctx, constants.OpenAIChatCompletionsPath, payload, &out); err != nil {
		return game.BattleSetup{}, err
	}
	if len(out.Choices) == 0 {
		return game.BattleSetup{}, ErrEmptyResponse
	}
	msg := out.Choices[0].Message
	if msg.Refusal != "" {
		err = fmt.Errorf("%w: refused: %s", ErrInvalidSetup, msg.Refusal)
		return game.BattleSetup{}, err
	}
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		err = ErrEmptyResponse
		return game.BattleSetup{}, err
	}

	setup, err = c.parseSetup(content)
	if err != nil {
		return game.BattleSetup{}, err
	}
	logging.Info("battle setup generated", logging.Ctx(ctx, logging.Fields{
		constants.LogFieldModel: c.opts.ChatModel,
		"player":                setup.Player.Name,
		"opponent":              setup.Opponent.Name,
	}))
	return setup, nil
}

func (c *Client) parseSetup(content string) (game.BattleSetup, error) {
	var p setupPayload
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return game.BattleSetup{}, fmt.Errorf("%w: %v", ErrInvalidSetup, err)
	}
	p.Player.normalize()
	p.Opponent.normalize()
	if err := c.validate.Struct(p); err != nil {
		return game.BattleSetup{}, fmt.Errorf("%w: %v", ErrInvalidSetup, err)
	}
	return game.BattleSetup{
		Player:   p.Player.template(),
		Opponent: p.Opponent.template(),
	}, nil
}

// normalize cleans every text field in place. It runs before validation so
// whitespace-only names fail the required checks.
func (p *creaturePayload) normalize() {
	p.Name = clean(p.Name)
	p.Type = strings.TrimSpace(p.Type)
	p.Description = clean(p.Description)
	for i := range p.Moves {
		m := &p.Moves[i]
		m.Name = clean(m.Name)
		m.Type = strings.TrimSpace(m.Type)
		m.Description = clean(m.Description)
	}
}

func (p creaturePayload) template() game.CreatureTemplate {
	t, _ := game.ParseElementType(p.Type)
	moves := make([]game.Move, len(p.Moves))
	for i, m := range p.Moves {
		mt, _ := game.ParseElementType(m.Type)
		moves[i] = game.Move{
			Name:        m.Name,
			Type:        mt,
			Power:       m.Power,
			Accuracy:    m.Accuracy,
			Description: m.Description,
		}
	}
	return game.CreatureTemplate{
		Name:        p.Name,
		Type:        t,
		MaxHP:       p.MaxHP,
		Attack:      p.Attack,
		Defense:     p.Defense,
		Speed:       p.Speed,
		Description: p.Description,
		Moves:       moves,
	}
}

// clean trims and NFC-normalizes provider text so composed and decomposed
// forms of the same name render and hash identically.
func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func setupSchema() map[string]interface{} {
	creature := creatureSchema()
	return map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]interface{}{
			"player":   creature,
			"opponent": creature,
		},
		"required": []string{"player", "opponent"},
	}
}

func creatureSchema() map[string]interface{} {
	element := map[string]interface{}{"type": "string", "enum": game.ElementNames()}
	move := map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]interface{}{
			"name":        map[string]interface{}{"type": "string"},
			"type":        element,
			"power":       map[string]interface{}{"type": "integer"},
			"accuracy":    map[string]interface{}{"type": "integer"},
			"description": map[string]interface{}{"type": "string"},
		},
		"required": []string{"name", "type", "power", "accuracy", "description"},
	}
	return map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]interface{}{
			"name":    map[string]interface{}{"type": "string"},
			"type":    element,
			"max_hp":  map[string]interface{}{"type": "integer"},
			"attack":  map[string]interface{}{"type": "integer"},
			"defense": map[string]interface{}{"type": "integer"},
			"speed":   map[string]interface{}{"type": "integer"},
			"description": map[string]interface{}{
				"type":        "string",
				"description": "A detailed visual description of the monster for image generation.",
			},
			"moves": map[string]interface{}{
				"type":        "array",
				"items":       move,
				"description": fmt.Sprintf("Exactly %d moves.", movesPerCreature),
			},
		},
		"required": []string{"name", "type", "max_hp", "attack", "defense", "speed", "description", "moves"},
	}
}
