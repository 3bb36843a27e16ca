package narrative

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bradreaney/dnd-session-engine/internal/constants"
	"github.com/bradreaney/dnd-session-engine/internal/dedupe"
	"github.com/bradreaney/dnd-session-engine/internal/keys"
	"github.com/bradreaney/dnd-session-engine/internal/logging"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// FallbackText is the neutral in-character reply used whenever the
// generator is unavailable, errors, or times out. Narrative calls never
// surface a hard failure to players.
const FallbackText = "The threads of fate tangle for a moment. The Dungeon Master pauses, considering the scene — give it another try in a moment."

// Response sources, reported so degraded replies stay distinguishable
// from genuine generations in logs and payloads.
const (
	SourceCache    = "cache"
	SourceModel    = "model"
	SourceFallback = "fallback"
)

// Generator produces narration for a prompt plus conversation history.
type Generator interface {
	Generate(ctx context.Context, prompt string, history []Turn) (string, error)
}

// ResponseCache is the slice of the repository the narrator needs for
// caching. Cache errors are never fatal; they degrade to misses.
type ResponseCache interface {
	GetCachedNarrative(fingerprint string) (string, bool, error)
	SaveCachedNarrative(fingerprint, response string, ttl time.Duration) error
}

// Result is a narrator reply. Degraded marks fallback text so callers
// and logs can tell it apart from real narration.
type Result struct {
	Text     string `json:"text"`
	Source   string `json:"source"`
	Degraded bool   `json:"degraded"`
}

// GeminiGenerator calls the Gemini API through a chat session carrying
// the conversation history.
type GeminiGenerator struct {
	model *genai.GenerativeModel
}

// NewGeminiGenerator builds a generator for the named model using the
// provided API key.
func NewGeminiGenerator(ctx context.Context, apiKey, modelName string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiGenerator{model: client.GenerativeModel(modelName)}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, history []Turn) (string, error) {
	chat := g.model.StartChat()
	chat.History = make([]*genai.Content, 0, len(history))
	for _, t := range history {
		chat.History = append(chat.History, &genai.Content{
			Role:  t.Role,
			Parts: []genai.Part{genai.Text(t.Text)},
		})
	}

	resp, err := chat.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unsupported response part from model")
	}
	return strings.TrimSpace(string(text)), nil
}

// Narrator orchestrates narrative generation: prompt templating, cache
// lookup, singleflight dedupe, bounded wait and the neutral fallback.
type Narrator struct {
	generator      Generator
	cache          ResponseCache
	promptTemplate string
	timeout        time.Duration
	cacheTTL       time.Duration
}

func NewNarrator(generator Generator, cache ResponseCache, promptTemplate string, timeout, cacheTTL time.Duration) *Narrator {
	return &Narrator{
		generator:      generator,
		cache:          cache,
		promptTemplate: promptTemplate,
		timeout:        timeout,
		cacheTTL:       cacheTTL,
	}
}

// Respond produces a narrator reply for the player message given the
// prior conversation turns. The final turn of the provided context is
// the current message and is folded into the prompt; earlier turns ride
// along as chat history.
func (n *Narrator) Respond(ctx context.Context, turns []Turn) Result {
	message := ""
	history := turns
	if len(turns) > 0 {
		message = turns[len(turns)-1].Text
		history = turns[:len(turns)-1]
	}
	prompt := strings.ReplaceAll(n.promptTemplate, "{{message}}", message)

	historyTexts := make([]string, 0, len(history))
	for _, t := range history {
		historyTexts = append(historyTexts, t.Role+":"+t.Text)
	}
	fp := keys.PromptFingerprint(prompt, historyTexts)

	if cached, ok := n.lookupCache(fp); ok {
		return Result{Text: cached, Source: SourceCache}
	}

	ch := dedupe.NarrativeGroup.DoChan(fp, func() (interface{}, error) {
		// Re-check the cache inside the flight in case another caller
		// stored the response before we got here.
		if cached, ok := n.lookupCache(fp); ok {
			return cached, nil
		}

		genCtx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		text, err := n.generator.Generate(genCtx, prompt, history)
		if err != nil {
			return "", err
		}
		if text == "" {
			return "", fmt.Errorf("generator returned empty narration")
		}
		if err := n.cache.SaveCachedNarrative(fp, text, n.cacheTTL); err != nil {
			logging.Warn("narrative cache store failed", logging.Fields{constants.LogFieldKey: fp, "error": err.Error()})
		}
		return text, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			logging.Warn("narrative generation failed; serving fallback", logging.Fields{constants.LogFieldKey: fp, "error": r.Err.Error()})
			return Result{Text: FallbackText, Source: SourceFallback, Degraded: true}
		}
		text, _ := r.Val.(string)
		if text == "" {
			return Result{Text: FallbackText, Source: SourceFallback, Degraded: true}
		}
		return Result{Text: text, Source: SourceModel}
	case <-time.After(n.timeout + time.Second):
		logging.Warn("narrative generation timed out; serving fallback", logging.Fields{constants.LogFieldKey: fp})
		return Result{Text: FallbackText, Source: SourceFallback, Degraded: true}
	case <-ctx.Done():
		return Result{Text: FallbackText, Source: SourceFallback, Degraded: true}
	}
}

// lookupCache treats cache failures as misses so an unavailable cache
// never blocks narration.
func (n *Narrator) lookupCache(fp string) (string, bool) {
	cached, ok, err := n.cache.GetCachedNarrative(fp)
	if err != nil {
		logging.Warn("narrative cache lookup failed; treating as miss", logging.Fields{constants.LogFieldKey: fp, "error": err.Error()})
		return "", false
	}
	if ok {
		logging.Info("narrative cache hit", logging.Fields{constants.LogFieldKey: fp, constants.LogFieldSource: SourceCache})
	}
	return cached, ok
}
