// Package catalog implements the product catalog: the AI-driven
// creation pipeline, metadata extraction, and the read-only query
// surface over persisted products.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arcanum-labs/magicshop/internal/domain"
	"github.com/arcanum-labs/magicshop/internal/observability"
)

// TextGenerator is the single backend capability metadata extraction needs.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Metadata is the structured record extracted from a generated description.
type Metadata struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Rarity   string   `json:"rarity"`
	Price    string   `json:"price"`
}

// fallbackTag is appended when extraction yields fewer than two tags.
const fallbackTag = "Magical"

// metadataFields lists the required keys in reporting order.
var metadataFields = []string{"name", "category", "tags", "rarity", "price"}

// Extractor turns free-form generated descriptions into strict Metadata.
type Extractor struct {
	ai     TextGenerator
	logger *observability.Logger
}

// NewExtractor creates a metadata extractor over the given text backend.
func NewExtractor(ai TextGenerator, logger *observability.Logger) *Extractor {
	return &Extractor{
		ai:     ai,
		logger: logger.WithComponent("metadata"),
	}
}

// Extract asks the backend for a bare JSON object describing the
// product and validates it into Metadata. Tags are normalized to the
// 2..5 range. category and rarity are accepted verbatim; the backend is
// trusted to follow the suggested vocabularies.
func (e *Extractor) Extract(ctx context.Context, description string) (Metadata, error) {
	text, err := e.ai.GenerateText(ctx, extractionPrompt(description))
	if err != nil {
		return Metadata{}, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Metadata{}, domain.ExtractionError("empty response", nil)
	}

	text = stripCodeFence(text)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		e.logger.Error().Str("response", text).Msg("Metadata response is not valid JSON")
		return Metadata{}, domain.ExtractionError("parse metadata JSON", err)
	}

	for _, field := range metadataFields {
		if _, ok := raw[field]; !ok {
			return Metadata{}, domain.ExtractionError(fmt.Sprintf("missing field: %s", field), nil)
		}
	}

	meta := Metadata{}
	if err := json.Unmarshal(raw["tags"], &meta.Tags); err != nil {
		return Metadata{}, domain.ExtractionError("tags must be a list", err)
	}

	for field, dst := range map[string]*string{
		"name":     &meta.Name,
		"category": &meta.Category,
		"rarity":   &meta.Rarity,
		"price":    &meta.Price,
	} {
		if err := json.Unmarshal(raw[field], dst); err != nil {
			return Metadata{}, domain.ExtractionError(fmt.Sprintf("field %s must be a string", field), err)
		}
	}

	meta.Tags = normalizeTags(meta.Tags)

	e.logger.Info().
		Str("name", meta.Name).
		Str("category", meta.Category).
		Str("rarity", meta.Rarity).
		Strs("tags", meta.Tags).
		Msg("Extracted metadata")

	return meta, nil
}

// normalizeTags enforces the 2..5 tag range: a single fallback tag is
// appended when under two, and the list is truncated to five in
// original order.
func normalizeTags(tags []string) []string {
	if len(tags) < 2 {
		tags = append(tags, fallbackTag)
	}
	if len(tags) > 5 {
		tags = tags[:5]
	}
	return tags
}

// stripCodeFence removes a wrapping fenced code block; the backend does
// not reliably honor the "no code blocks" instruction.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text
	}
	return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
}

func extractionPrompt(description string) string {
	return fmt.Sprintf(`Analyze this magical product description and extract structured metadata.
Return ONLY a valid JSON object with these exact fields (no markdown, no code blocks, just the JSON):

{
  "name": "A concise product name (max 200 chars)",
  "category": "One of: Weapons, Potions, Artifacts, Armor, Scrolls, Wands, Rings, Amulets, Books, Ingredients",
  "tags": ["2-5 relevant tags as strings"],
  "rarity": "One of: Legendary, Epic, Rare, Uncommon, Common",
  "price": "Price with currency (e.g., '500 Gold Coins', '1000 Silver Pieces')"
}

Description to analyze:
%s

Return only the JSON object:`, description)
}
