// ABOUTME: Demo-data seeder: installs bundled plugins with sample configurations.
// ABOUTME: Uses OpenAI to invent realistic config values, static fallback otherwise.

package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sashabaranov/go-openai"

	"github.com/pixeldeck/pixeldeck/internal/store"
	"github.com/pixeldeck/pixeldeck/plugins/core"
)

// Generator seeds the store with installed plugins and sample configs.
type Generator struct {
	client *openai.Client
	useAI  bool
	model  string
	store  *store.Store
}

// NewGenerator creates a generator, loading the API key from .env if available.
func NewGenerator(s *store.Store) *Generator {
	g := &Generator{store: s}

	// Try to load .env from current dir or parent dirs
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		godotenv.Load(filepath.Join(home, ".env"))
	}

	g.model = os.Getenv("OPENAI_MODEL")
	if g.model == "" {
		g.model = "gpt-5-mini"
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey != "" {
		g.client = openai.NewClient(apiKey)
		g.useAI = true
		log.Printf("OpenAI API key found, generating sample configs with model: %s", g.model)
	} else {
		log.Println("No OPENAI_API_KEY found, using static sample configs")
	}

	return g
}

// Run installs every registered plugin and saves a sample configuration.
func (g *Generator) Run(ctx context.Context) error {
	for _, def := range core.All() {
		rec := core.PluginRecord{
			ID:           def.Name(),
			Name:         def.Title(),
			Version:      def.Version(),
			Enabled:      true,
			DisplayModes: def.DisplayModes(),
			WebUIActions: def.WebUIActions(),
		}
		if err := g.store.InstallPlugin(rec); err != nil {
			return fmt.Errorf("install %s: %w", def.Name(), err)
		}

		config := g.sampleConfig(ctx, def)
		if err := g.store.SaveConfig(def.Name(), config); err != nil {
			return fmt.Errorf("save config %s: %w", def.Name(), err)
		}
		log.Printf("  ✓ Seeded %s", def.Name())
	}
	return nil
}

// sampleConfig produces a configuration for one plugin, preferring AI output
// and falling back to the static sample on any failure.
func (g *Generator) sampleConfig(ctx context.Context, def core.Definition) map[string]interface{} {
	if !g.useAI {
		return staticConfig(def)
	}

	config, err := g.generateConfig(ctx, def)
	if err != nil {
		log.Printf("  ✗ AI config for %s failed (%v), using static sample", def.Name(), err)
		return staticConfig(def)
	}
	return config
}

func (g *Generator) generateConfig(ctx context.Context, def core.Definition) (map[string]interface{}, error) {
	schemaJSON, err := json.Marshal(def.ConfigSchema())
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Generate one realistic sample configuration for a "%s" display plugin.
The configuration must conform to this JSON schema:

%s

Return only the configuration object as JSON. Use plausible real-world values,
respect enum choices and numeric bounds, and leave secret fields empty.`,
		def.Title(), schemaJSON)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a data generator. Always respond with valid JSON only, no markdown or explanation.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	var config map[string]interface{}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &config); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return config, nil
}
