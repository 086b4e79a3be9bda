package session

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/blackwell-systems/imgslim/internal/scanner"
)

// Decision is one answer about one candidate.
type Decision int

const (
	Proceed Decision = iota
	Skip
	SkipAll
	Abort
)

// Item is the candidate as presented to a Decider, including the planned
// target and the estimated output size shown to the user. The estimate is
// informational only and may diverge from the actual result.
type Item struct {
	Candidate *scanner.Candidate
	Width     int
	Height    int
	Estimated int64
	Index     int
	Total     int
}

// Decider answers one Decision per offered item. Implementations may be a
// human prompt, a fixed policy, or a scripted test double.
type Decider interface {
	Decide(item Item) Decision
}

// PromptDecider asks on every item and reads a one-line answer: y/yes
// proceeds, s skips all remaining, q quits, anything else skips.
type PromptDecider struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewPromptDecider creates a PromptDecider reading answers from in and
// writing the prompt to out.
func NewPromptDecider(in io.Reader, out io.Writer) *PromptDecider {
	return &PromptDecider{reader: bufio.NewReader(in), out: out}
}

func (p *PromptDecider) Decide(Item) Decision {
	fmt.Fprint(p.out, "  Shrink? [y/N/s/q]: ")

	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" {
		// Input is gone, nobody can answer the remaining items.
		return Abort
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return Proceed
	case "s":
		return SkipAll
	case "q", "quit":
		return Abort
	default:
		return Skip
	}
}

// AutoDecider answers every item the same way. Used for --yes runs.
type AutoDecider struct {
	Answer Decision
}

func (a AutoDecider) Decide(Item) Decision {
	return a.Answer
}
