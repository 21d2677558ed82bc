package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter reads answers from the user. Passwords are read with echo off
// when input is a terminal; pipes and tests fall back to plain lines.
type Prompter struct {
	in        io.Reader
	lines     *bufio.Reader
	out       io.Writer
	assumeYes bool
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, lines: bufio.NewReader(in), out: out}
}

// AssumeYes makes every confirmation succeed without reading input.
func (p *Prompter) AssumeYes() *Prompter {
	p.assumeYes = true
	return p
}

// Line asks for a single line of text.
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	return p.readLine()
}

// Password asks for a secret without echoing it on a terminal.
func (p *Prompter) Password(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return p.readLine()
}

// Confirm asks a yes/no question; anything but y or yes is a no.
func (p *Prompter) Confirm(_ context.Context, question string) bool {
	if p.assumeYes {
		return true
	}
	fmt.Fprintf(p.out, "%s [y/N]: ", question)
	answer, err := p.readLine()
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.lines.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
