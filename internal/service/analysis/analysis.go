// Package analysis scores a resume against a job posting through the
// completion pool, with a deterministic heuristic fallback when the
// provider is unavailable.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hireloop/keypool/internal/infra/completion"
	"github.com/hireloop/keypool/internal/keypool"
)

const systemPrompt = "You are a recruiting assistant. Score how well the resume matches the job posting from 0 to 100 and answer with JSON: {\"score\": <int>, \"summary\": \"<one sentence>\"}."

// Result is one scored match.
type Result struct {
	Score    int    `json:"score"`
	Summary  string `json:"summary"`
	Fallback bool   `json:"fallback"`
}

// Analyzer wraps the completion pool for resume scoring.
type Analyzer struct {
	pool  *keypool.Pool[*completion.Client]
	model string
}

// New returns an analyzer backed by pool. Model may be empty to use a
// small default.
func New(pool *keypool.Pool[*completion.Client], model string) *Analyzer {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Analyzer{pool: pool, model: model}
}

// Analyze scores resume against posting. The providers are best-effort:
// when every attempt fails, the heuristic keyword score is returned with
// Fallback set instead of an error, so the user-visible request never
// fails on provider exhaustion.
func (a *Analyzer) Analyze(ctx context.Context, resume, posting string) (Result, error) {
	result, err := keypool.Execute(ctx, a.pool, func(ctx context.Context, client *completion.Client) (Result, error) {
		resp, err := client.Complete(ctx, completion.Request{
			Model: a.model,
			Messages: []completion.Message{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: fmt.Sprintf("Job posting:\n%s\n\nResume:\n%s", posting, resume)},
			},
			Temperature: 0.2,
		})
		if err != nil {
			return Result{}, err
		}
		return parseScore(resp.Content())
	})
	if err == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return Result{}, err
	}

	slog.Warn("resume analysis falling back to heuristic score", "error", err)
	return Result{
		Score:    HeuristicScore(resume, posting),
		Summary:  "heuristic keyword match (provider unavailable)",
		Fallback: true,
	}, nil
}

func parseScore(content string) (Result, error) {
	// Models occasionally fence the JSON.
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var out Result
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &out); err != nil {
		return Result{}, keypool.Permanent(fmt.Errorf("analysis: unparseable model output: %w", err))
	}
	if out.Score < 0 {
		out.Score = 0
	}
	if out.Score > 100 {
		out.Score = 100
	}
	return out, nil
}

// HeuristicScore is the deterministic fallback: the share of significant
// posting words that also appear in the resume, scaled to 0-100.
func HeuristicScore(resume, posting string) int {
	resumeWords := make(map[string]struct{})
	for _, w := range tokenize(resume) {
		resumeWords[w] = struct{}{}
	}

	postingWords := make(map[string]struct{})
	for _, w := range tokenize(posting) {
		postingWords[w] = struct{}{}
	}
	if len(postingWords) == 0 {
		return 0
	}

	matched := 0
	for w := range postingWords {
		if _, ok := resumeWords[w]; ok {
			matched++
		}
	}
	return matched * 100 / len(postingWords)
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	var out []string
	for _, f := range fields {
		if len(f) > 3 {
			out = append(out, f)
		}
	}
	return out
}
