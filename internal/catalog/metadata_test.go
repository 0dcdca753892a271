package catalog

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanum-labs/magicshop/internal/domain"
	"github.com/arcanum-labs/magicshop/internal/observability"
)

type stubTextGenerator struct {
	response string
	err      error
	prompt   string
}

func (s *stubTextGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.response, s.err
}

const validMetadataJSON = `{
  "name": "Dragon Fire Sword",
  "category": "Weapons",
  "tags": ["fire", "dragon", "sword"],
  "rarity": "Legendary",
  "price": "500 Gold Coins"
}`

func newTestExtractor(response string) (*Extractor, *stubTextGenerator) {
	stub := &stubTextGenerator{response: response}
	return NewExtractor(stub, observability.Nop()), stub
}

func TestExtractValid(t *testing.T) {
	e, stub := newTestExtractor(validMetadataJSON)

	meta, err := e.Extract(context.Background(), "A sword wreathed in dragon fire.")
	require.NoError(t, err)

	assert.Equal(t, "Dragon Fire Sword", meta.Name)
	assert.Equal(t, "Weapons", meta.Category)
	assert.Equal(t, []string{"fire", "dragon", "sword"}, meta.Tags)
	assert.Equal(t, "Legendary", meta.Rarity)
	assert.Equal(t, "500 Gold Coins", meta.Price)

	assert.Contains(t, stub.prompt, "A sword wreathed in dragon fire.")
	assert.Contains(t, stub.prompt, `"name"`)
}

func TestExtractStripsCodeFence(t *testing.T) {
	fenced := []string{
		"```json\n" + validMetadataJSON + "\n```",
		"```\n" + validMetadataJSON + "\n```",
	}
	for _, response := range fenced {
		e, _ := newTestExtractor(response)

		meta, err := e.Extract(context.Background(), "desc")
		require.NoError(t, err)
		assert.Equal(t, "Dragon Fire Sword", meta.Name)
	}
}

func TestExtractEmptyResponse(t *testing.T) {
	e, _ := newTestExtractor("   \n  ")

	_, err := e.Extract(context.Background(), "desc")
	require.Error(t, err)
	assert.Equal(t, domain.KindExtraction, domain.KindOf(err))
	assert.Contains(t, err.Error(), "empty response")
}

func TestExtractInvalidJSON(t *testing.T) {
	e, _ := newTestExtractor("this is not json at all")

	_, err := e.Extract(context.Background(), "desc")
	require.Error(t, err)
	assert.Equal(t, domain.KindExtraction, domain.KindOf(err))
}

func TestExtractMissingField(t *testing.T) {
	for _, field := range metadataFields {
		t.Run(field, func(t *testing.T) {
			partial := map[string]any{
				"name":     "x",
				"category": "Potions",
				"tags":     []string{"a", "b"},
				"rarity":   "Common",
				"price":    "1 Gold",
			}
			delete(partial, field)

			var parts []string
			for k, v := range partial {
				switch val := v.(type) {
				case string:
					parts = append(parts, fmt.Sprintf("%q: %q", k, val))
				case []string:
					parts = append(parts, fmt.Sprintf("%q: [%q, %q]", k, val[0], val[1]))
				}
			}
			e, _ := newTestExtractor("{" + strings.Join(parts, ",") + "}")

			_, err := e.Extract(context.Background(), "desc")
			require.Error(t, err)
			assert.Equal(t, domain.KindExtraction, domain.KindOf(err))
			assert.Contains(t, err.Error(), "missing field: "+field)
		})
	}
}

func TestExtractTagsMustBeList(t *testing.T) {
	e, _ := newTestExtractor(`{
		"name": "x", "category": "Potions", "tags": "fire",
		"rarity": "Common", "price": "1 Gold"
	}`)

	_, err := e.Extract(context.Background(), "desc")
	require.Error(t, err)
	assert.Equal(t, domain.KindExtraction, domain.KindOf(err))
	assert.Contains(t, err.Error(), "tags must be a list")
}

func TestExtractBackendError(t *testing.T) {
	stub := &stubTextGenerator{err: domain.BackendError("upstream down", nil)}
	e := NewExtractor(stub, observability.Nop())

	_, err := e.Extract(context.Background(), "desc")
	require.Error(t, err)
	assert.Equal(t, domain.KindBackend, domain.KindOf(err))
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"empty gets fallback", []string{}, []string{"Magical"}},
		{"single gets fallback", []string{"fire"}, []string{"fire", "Magical"}},
		{"two unchanged", []string{"fire", "ice"}, []string{"fire", "ice"}},
		{"five unchanged", []string{"a", "b", "c", "d", "e"}, []string{"a", "b", "c", "d", "e"}},
		{"seven truncated to five", []string{"a", "b", "c", "d", "e", "f", "g"}, []string{"a", "b", "c", "d", "e"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeTags(tc.in))
		})
	}
}
