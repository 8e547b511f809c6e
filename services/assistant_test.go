package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubCompleter spielt das Grounded-QA-Verhalten des Templates nach: ohne
// Paper-Kontext im Prompt liefert es die Decline-Phrase.
type stubCompleter struct {
	lastPrompt string
	reply      func(prompt string) string
	err        error
}

func (s *stubCompleter) Complete(_ context.Context, prompt string, _ CompleteOptions) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	if s.reply == nil {
		return "", nil
	}
	return s.reply(prompt), nil
}

func TestAskPromptCarriesDeclineInstruction(t *testing.T) {
	stub := &stubCompleter{reply: func(string) string { return "some answer" }}
	a := NewAssistant(stub, zap.NewNop(), nil)

	_, err := a.Ask(context.Background(), "paper body", "what is the result?")

	require.NoError(t, err)
	assert.Contains(t, stub.lastPrompt, "paper body")
	assert.Contains(t, stub.lastPrompt, "what is the result?")
	assert.Contains(t, stub.lastPrompt, DeclinePhrase)
	assert.Contains(t, stub.lastPrompt, "Answer ONLY based on the paper.")
}

func TestAskWithoutContextYieldsDecline(t *testing.T) {
	// Nachgestelltes Modellverhalten: ohne tragfähigen Kontext greift die
	// Decline-Anweisung des Templates.
	stub := &stubCompleter{reply: func(prompt string) string {
		section := promptSection(prompt, "Below is a research paper abstract or content:", "User Question:")
		if strings.TrimSpace(section) == "" {
			return DeclinePhrase
		}
		return "grounded answer"
	}}
	a := NewAssistant(stub, zap.NewNop(), nil)

	answer, err := a.Ask(context.Background(), "", "what is the result?")

	require.NoError(t, err)
	assert.Equal(t, DeclinePhrase, answer)
}

func TestAskEmptyCompletionBecomesNoAnswer(t *testing.T) {
	stub := &stubCompleter{}
	a := NewAssistant(stub, zap.NewNop(), nil)

	answer, err := a.Ask(context.Background(), "text", "q")

	require.NoError(t, err)
	assert.Equal(t, NoAnswerGenerated, answer)
}

func TestAskPropagatesGatewayError(t *testing.T) {
	stub := &stubCompleter{err: ErrGateway}
	a := NewAssistant(stub, zap.NewNop(), nil)

	_, err := a.Ask(context.Background(), "text", "q")

	assert.ErrorIs(t, err, ErrGateway)
}

func TestSummarizePromptContainsText(t *testing.T) {
	stub := &stubCompleter{reply: func(string) string { return "summary" }}
	a := NewAssistant(stub, zap.NewNop(), nil)

	out, err := a.Summarize(context.Background(), "the abstract body")

	require.NoError(t, err)
	assert.Equal(t, "summary", out)
	assert.Contains(t, stub.lastPrompt, "the abstract body")
	assert.Contains(t, stub.lastPrompt, "Summarize the following research abstract")
}

func TestAgentPromptContainsMessage(t *testing.T) {
	stub := &stubCompleter{reply: func(string) string { return "agent reply" }}
	a := NewAssistant(stub, zap.NewNop(), nil)

	out, err := a.Agent(context.Background(), "find recent work on distillation")

	require.NoError(t, err)
	assert.Equal(t, "agent reply", out)
	assert.Contains(t, stub.lastPrompt, "find recent work on distillation")
	assert.Contains(t, stub.lastPrompt, "ResearchPilot AI")
}

// promptSection schneidet den Text zwischen zwei Markern aus einem Prompt.
func promptSection(prompt, from, to string) string {
	start := strings.Index(prompt, from)
	end := strings.Index(prompt, to)
	if start < 0 || end < 0 || end <= start {
		return ""
	}
	return prompt[start+len(from) : end]
}
