// Package reveal holds the letter shown after a completed session and the
// typewriter that uncovers it one character at a time.
package reveal

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DefaultInterval is the delay between typed characters.
const DefaultInterval = 50 * time.Millisecond

type Letter struct {
	Recipient string
	Sender    string
	Signature string
}

func NewLetter(recipient, sender, signature string) Letter {
	return Letter{
		Recipient: recipient,
		Sender:    sender,
		Signature: signature,
	}
}

func (l Letter) Text() string {
	signature := l.Signature
	if signature == "" {
		signature = l.Sender
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", l.Recipient)
	b.WriteString("This game was made just for you, to celebrate everything that makes you special.\n\n")
	b.WriteString("Your love for the Mamelodi Sundowns and how passionate you are about soccer,\n")
	b.WriteString("The peace you find in nature, surrounded by trees and flowers,\n")
	b.WriteString("Your adventurous spirit that drives you to try skydiving, snowboarding, and rock climbing,\n")
	b.WriteString("The way RnB and Hip Hop music moves your soul,\n")
	b.WriteString("And how you find comfort in the simple joys of staying indoors in your cozy baggy clothes.\n\n")
	b.WriteString("You make every moment more special just by being you.\n\n")
	b.WriteString("With all my love,\n")
	b.WriteString(signature + " ❤️")
	return b.String()
}

// Filename is the name the saved letter is downloaded under.
func (l Letter) Filename() string {
	return "message-from-" + strings.ToLower(strings.ReplaceAll(l.Sender, " ", "-")) + ".txt"
}

// Typewriter reveals a text one rune at a time.
type Typewriter struct {
	runes []rune
	pos   int
}

func NewTypewriter(text string) *Typewriter {
	return &Typewriter{runes: []rune(text)}
}

// Next reveals one more rune and returns the visible prefix. The second
// result is false once the whole text is visible.
func (tw *Typewriter) Next() (string, bool) {
	if tw.pos < len(tw.runes) {
		tw.pos++
	}
	return string(tw.runes[:tw.pos]), tw.pos < len(tw.runes)
}

func (tw *Typewriter) Done() bool {
	return tw.pos >= len(tw.runes)
}

// Visible returns the prefix revealed so far.
func (tw *Typewriter) Visible() string {
	return string(tw.runes[:tw.pos])
}

// Skip reveals everything at once.
func (tw *Typewriter) Skip() string {
	tw.pos = len(tw.runes)
	return string(tw.runes)
}

// Run emits the growing prefix every interval until the text is complete or
// ctx is cancelled. emit returning an error stops the run with that error.
func (tw *Typewriter) Run(ctx context.Context, interval time.Duration, emit func(visible string) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for !tw.Done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			visible, _ := tw.Next()
			if err := emit(visible); err != nil {
				return err
			}
		}
	}
	return nil
}
