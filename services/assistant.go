package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DeclinePhrase ist die wörtliche Antwort, die das Grounded-QA-Template dem
// Modell vorschreibt, wenn die Frage nicht aus dem Paper beantwortbar ist.
const DeclinePhrase = "This information is not explicitly stated in the paper."

// NoAnswerGenerated wird geliefert, wenn das Gateway eine leere Completion
// zurückgibt.
const NoAnswerGenerated = "No answer generated."

// Assistant kapselt die drei Prompt-Templates über dem Gateway-Primitiv:
// Summarize, grounded Ask und den offenen Research-Agent.
type Assistant struct {
	Completer   TextCompleter
	Logger      *zap.Logger
	Temperature *float64
}

// NewAssistant erstellt einen neuen Assistant.
func NewAssistant(completer TextCompleter, logger *zap.Logger, temperature *float64) *Assistant {
	return &Assistant{Completer: completer, Logger: logger, Temperature: temperature}
}

// Summarize fasst einen Abstract in strukturierter akademischer Sprache zusammen.
func (a *Assistant) Summarize(ctx context.Context, text string) (string, error) {
	prompt := summarizePrompt(text)
	return a.Completer.Complete(ctx, prompt, CompleteOptions{Temperature: a.Temperature})
}

// Ask beantwortet eine Frage ausschließlich auf Basis des übergebenen
// Paper-Texts. Das Template weist das Modell an, bei fehlender Grundlage mit
// DeclinePhrase zu antworten.
func (a *Assistant) Ask(ctx context.Context, paperText, question string) (string, error) {
	prompt := askPrompt(paperText, question)
	answer, err := a.Completer.Complete(ctx, prompt, CompleteOptions{Temperature: a.Temperature})
	if err != nil {
		return "", err
	}
	if answer == "" {
		a.Logger.Warn("Leere Antwort vom Gateway für Paper-Frage")
		return NoAnswerGenerated, nil
	}
	return answer, nil
}

// Agent beantwortet eine offene Nutzeranfrage als Research-Assistent.
func (a *Assistant) Agent(ctx context.Context, message string) (string, error) {
	prompt := agentPrompt(message)
	return a.Completer.Complete(ctx, prompt, CompleteOptions{Temperature: a.Temperature})
}

func summarizePrompt(text string) string {
	return fmt.Sprintf(`You are a professional academic research assistant.

Summarize the following research abstract in clear academic language:

%s

Provide a concise but structured summary.
`, text)
}

func askPrompt(paperText, question string) string {
	return fmt.Sprintf(`You are an expert academic research assistant.

Below is a research paper abstract or content:

%s

User Question:
%s

Answer ONLY based on the paper.
Be precise and academic.
If not found, say:
%q
`, paperText, question, DeclinePhrase)
}

func agentPrompt(message string) string {
	return fmt.Sprintf(`You are ResearchPilot AI — an advanced academic research assistant.

User Query:
%s

Provide:
- Structured
- Detailed
- Academic
- Non-generic response
`, message)
}
