package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"sensex-pulse/internal/models"
)

const commentarySystemPrompt = "You are an equity analyst writing the " +
	"end-of-day wrap for Indian markets. Write two short paragraphs in " +
	"plain language. Work only from the notes you are given."

const maxCommentaryRows = 10

// completionClient is the slice of the OpenAI client the commentator uses.
type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Commentator turns a finished report into a short model-written market
// wrap. The wrap is optional; callers drop it when Summarize fails.
type Commentator struct {
	client completionClient
	model  string
}

// NewCommentator creates a commentator backed by the OpenAI API.
func NewCommentator(apiKey, model string) *Commentator {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Commentator{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Summarize produces the market wrap for rep.
func (c *Commentator) Summarize(ctx context.Context, rep *Report) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: commentarySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: commentaryPrompt(rep)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// commentaryPrompt compacts the report into the model's working notes.
func commentaryPrompt(rep *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Session: %s\n", rep.AsOf.Format("2006-01-02"))
	if rep.Benchmark != nil && rep.Benchmark.HasChange {
		fmt.Fprintf(&b, "Benchmark %s closed at %.2f (%+.2f%%)\n",
			rep.Benchmark.Symbol, rep.Benchmark.LastClose, rep.Benchmark.ChangePct)
	}

	if len(rep.Rows) == 0 {
		b.WriteString("No actionable signals today.\n")
	} else {
		b.WriteString("Actionable signals:\n")
		for i, r := range rep.Rows {
			if i == maxCommentaryRows {
				fmt.Fprintf(&b, "(and %d more)\n", len(rep.Rows)-maxCommentaryRows)
				break
			}
			fmt.Fprintf(&b, "%s %s at %.2f, probability %.0f%%, risk %s: %s\n",
				r.Symbol, r.Direction, r.LastClose, r.ProbabilityPct, r.RiskLevel, r.Reasons)
		}
	}

	writeMoverNotes(&b, "Top gainers", rep.Snapshot.Gainers)
	writeMoverNotes(&b, "Top losers", rep.Snapshot.Losers)

	return b.String()
}

func writeMoverNotes(b *strings.Builder, label string, movers []models.SymbolOverview) {
	if len(movers) == 0 {
		return
	}
	entries := make([]string, 0, len(movers))
	for _, o := range movers {
		entries = append(entries, fmt.Sprintf("%s %+.2f%%", o.Symbol, o.ChangePct))
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(entries, ", "))
}
