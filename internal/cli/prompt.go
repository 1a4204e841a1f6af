package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// linePrompter asks for the API key on out and reads one line from in.
// It satisfies service.CredentialPrompter.
type linePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newLinePrompter(in io.Reader, out io.Writer) *linePrompter {
	return &linePrompter{in: bufio.NewReader(in), out: out}
}

func (p *linePrompter) PromptCredential(ctx context.Context) (string, error) {
	fmt.Fprint(p.out, "Please enter your Groq API key: ")

	type result struct {
		line string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		done <- result{line, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		// A final line without a newline still counts.
		if r.err != nil && !(r.err == io.EOF && r.line != "") {
			return "", fmt.Errorf("reading API key: %w", r.err)
		}
		return strings.TrimSpace(r.line), nil
	}
}
