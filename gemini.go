package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	defaultRegion = "europe-west1"
	defaultModel  = "gemini-2.5-flash"
)

// GeminiClient suggests themed word lists through Vertex AI.
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates a Vertex AI client using Application Default
// Credentials. Empty region and model fall back to the defaults.
func NewGeminiClient(ctx context.Context, projectID, region, model string) (*GeminiClient, error) {
	if region == "" {
		region = defaultRegion
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: region,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClient{client: client, modelName: model}, nil
}

// Close releases resources held by the client.
func (g *GeminiClient) Close() error {
	return nil
}

const suggestPrompt = `Propose %d mots pour une grille de mots mêlés sur le thème : %q.

Langue des mots : %s.

Réponds au format JSON suivant :
{"words": ["mot1", "mot2", ...]}

Règles :
- Un seul mot par entrée, sans espace, sans trait d'union ni ponctuation.
- Entre 3 et 12 lettres par mot.
- Pas de doublons.
- Réponds UNIQUEMENT avec le JSON, sans commentaire ni markdown.`

// SuggestWords asks Gemini for a themed word list.
func (g *GeminiClient) SuggestWords(ctx context.Context, theme, language string, count int) ([]string, error) {
	if language == "" {
		language = "fr"
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.modelName,
		[]*genai.Content{{
			Role: "user",
			Parts: []*genai.Part{
				{Text: fmt.Sprintf(suggestPrompt, count, theme, language)},
			},
		}},
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(float32(0.7)),
			TopP:             genai.Ptr(float32(1)),
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	words, err := parseWordList(resp.Text())
	if err != nil {
		return nil, err
	}
	if len(words) > count {
		words = words[:count]
	}
	return words, nil
}

// parseWordList decodes {"words": [...]}, dropping blanks, entries with
// inner spaces and duplicates.
func parseWordList(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty gemini response")
	}

	var payload struct {
		Words []string `json:"words"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("parse word list JSON: %w\nraw response: %s", err, text)
	}

	seen := make(map[string]bool)
	words := make([]string, 0, len(payload.Words))
	for _, w := range payload.Words {
		w = strings.TrimSpace(w)
		if w == "" || strings.ContainsAny(w, " \t\n") || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("gemini returned no usable words")
	}
	return words, nil
}
