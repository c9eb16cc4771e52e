package selection

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rshade/citygap/internal/config"
	"github.com/rshade/citygap/internal/wiki"
)

// Confirmer decides whether a candidate is accepted into the result.
type Confirmer interface {
	Confirm(ctx context.Context, c wiki.Candidate) (bool, error)
}

// AcceptAll accepts every candidate. It backs naive mode.
type AcceptAll struct{}

// Confirm always returns true.
func (AcceptAll) Confirm(context.Context, wiki.Candidate) (bool, error) { return true, nil }

// PromptConfirmer asks the operator about each candidate on a line-based
// console. It backs manual mode.
type PromptConfirmer struct {
	out io.Writer
	in  io.Reader

	once    sync.Once
	answers chan answer
}

// answer is one line read from the console. ok is false at end of input.
type answer struct {
	text string
	ok   bool
	err  error
}

// NewPromptConfirmer reads answers from in and writes prompts to out.
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{out: out, in: in, answers: make(chan answer)}
}

// readLines feeds every line of input to p.answers, then closes it.
func (p *PromptConfirmer) readLines() {
	defer close(p.answers)
	scanner := bufio.NewScanner(p.in)
	for scanner.Scan() {
		p.answers <- answer{text: scanner.Text(), ok: true}
	}
	if err := scanner.Err(); err != nil {
		p.answers <- answer{err: err}
	}
}

// Confirm writes "<name>: " and waits for one line. Only "y" or "yes" (any
// case, surrounding space ignored) accepts. End of input declines. A
// cancelled ctx returns immediately, even while waiting on input.
func (p *PromptConfirmer) Confirm(ctx context.Context, c wiki.Candidate) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := fmt.Fprintf(p.out, "%s: ", c.Name); err != nil {
		return false, fmt.Errorf("writing prompt: %w", err)
	}

	p.once.Do(func() { go p.readLines() })

	var a answer
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a = <-p.answers:
	}

	if a.err != nil {
		return false, fmt.Errorf("reading answer: %w", a.err)
	}
	if !a.ok {
		return false, nil
	}

	switch strings.ToLower(strings.TrimSpace(a.text)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// ConfirmerFor returns the confirmation policy for mode.
func ConfirmerFor(mode config.Mode, in io.Reader, out io.Writer) (Confirmer, error) {
	parsed, err := config.ParseMode(string(mode))
	if err != nil {
		return nil, err
	}
	if parsed == config.ModeNaive {
		return AcceptAll{}, nil
	}
	return NewPromptConfirmer(in, out), nil
}
