// Package advisor implements an interactive, Gemini-backed session that
// helps turning unclassified ledger postings into classification rules.
//
// A posting is unclassified when it still sits on one of the configured
// fallback accounts: the tool could not attribute it to a tracked
// connection. The advisor is primed with those postings and proposes rule
// entries (pattern + transform) in the configuration's JSON form.
package advisor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/genai"
)

const model = "gemini-2.5-flash"

const systemPrompt = `You are an accounting assistant for a beancount ledger
generated from on-chain activity. The user will show you postings that sit on
fallback accounts because their counterpart address is not tracked. Propose
rule objects in this JSON form:

  {"pattern": {"account": "..."}, "transform": [{"field": "account", "value": "..."}]}

A rule matches a posting when ANY single pattern field (account, amount,
symbol, cost, price) equals the posting's field, and then applies its
transforms in order. Keep proposals short and always explain what each rule
rewrites.`

// Advisor is one interactive session.
type Advisor struct {
	w    io.Writer
	r    *bufio.Reader
	chat *genai.Chat
	// context shown to the model before the first question
	postings []string
}

// New creates an advisor primed with the unclassified postings.
func New(w io.Writer, r io.Reader, postings []string) *Advisor {
	return &Advisor{w: w, r: bufio.NewReader(r), postings: postings}
}

// Start opens the chat session.
func (a *Advisor) Start(ctx context.Context, client *genai.Client) error {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
	}
	chat, err := client.Chats.Create(ctx, model, cfg, nil)
	if err != nil {
		return err
	}
	a.chat = chat
	return nil
}

// Ask sends one message and returns the model's text answer.
func (a *Advisor) Ask(ctx context.Context, text string) (string, error) {
	resp, err := a.chat.Send(ctx, &genai.Part{Text: text})
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from advisor")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

const prompt = "advise> "

// Run starts the interactive session. Initial prompts, if any, are consumed
// before reading from the user; typing 'bye' (or Ctrl+D) ends the session.
func (a *Advisor) Run(ctx context.Context, client *genai.Client, prompts ...string) error {
	if a.chat == nil {
		if err := a.Start(ctx, client); err != nil {
			return err
		}
	}

	if len(a.postings) > 0 {
		intro := "Here are the unclassified postings:\n" + strings.Join(a.postings, "\n")
		answer, err := a.Ask(ctx, intro)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.w, answer)
	} else {
		fmt.Fprintln(a.w, "No unclassified postings found. Ask away anyway.")
	}

	for {
		fmt.Fprint(a.w, prompt)
		var input string
		if len(prompts) > 0 {
			input, prompts = prompts[0], prompts[1:]
			fmt.Fprintln(a.w, input)
		} else {
			line, err := a.r.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}
			input = line
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == "bye" {
			return nil
		}
		answer, err := a.Ask(ctx, input)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.w, answer)
	}
}
