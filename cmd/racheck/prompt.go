package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/ericfisherdev/raverify/internal/application"
	"github.com/ericfisherdev/raverify/internal/domain/model"
)

var (
	// errNoInput is returned when stdin closes before the credential is entered.
	errNoInput = errors.New("no credential entered; run racheck interactively once or set RAVERIFY_SECRET_KEY and save it")
	// errStdinConsumed is returned when the submission was read from stdin and
	// no terminal is available to ask for the credential.
	errStdinConsumed = errors.New("submission was read from stdin and no terminal is available to enter the web API key; pass the submission as a file or store a credential first (RAVERIFY_SECRET_KEY)")
)

// openTerminal opens the controlling terminal. Replaced in tests.
var openTerminal = func() (io.ReadCloser, error) {
	return os.Open("/dev/tty")
}

// terminalPrompter asks for the web API credential on the terminal. The key
// is read without echo when in is a terminal.
type terminalPrompter struct {
	in      io.Reader
	scanner *bufio.Scanner
	out     io.Writer
	canSave bool
}

func newTerminalPrompter(in io.Reader, out io.Writer, canSave bool) *terminalPrompter {
	return &terminalPrompter{
		in:      in,
		scanner: bufio.NewScanner(in),
		out:     out,
		canSave: canSave,
	}
}

// PromptCredential implements application.Prompter.
func (p *terminalPrompter) PromptCredential(ctx context.Context) (model.Credential, bool, error) {
	if err := ctx.Err(); err != nil {
		return model.Credential{}, false, err
	}

	fmt.Fprintln(p.out, "A RetroAchievements web API key is required (Settings > Keys on retroachievements.org).")

	username, err := p.readLine("Username: ")
	if err != nil {
		return model.Credential{}, false, err
	}

	key, err := p.readSecret("Web API key: ")
	if err != nil {
		return model.Credential{}, false, err
	}

	cred := model.Credential{Username: username, WebAPIKey: key}
	if !p.canSave {
		return cred, false, nil
	}

	answer, err := p.readLine("Remember this key on this device? [y/N]: ")
	if err != nil {
		return model.Credential{}, false, err
	}
	save := strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
	return cred, save, nil
}

// ttyPrompter asks on the controlling terminal. Used when stdin already
// carried the submission text.
func ttyPrompter(out io.Writer, canSave bool) application.Prompter {
	return application.PrompterFunc(func(ctx context.Context) (model.Credential, bool, error) {
		tty, err := openTerminal()
		if err != nil {
			return model.Credential{}, false, fmt.Errorf("%w: %w", errStdinConsumed, err)
		}
		defer tty.Close()

		return newTerminalPrompter(tty, out, canSave).PromptCredential(ctx)
	})
}

func (p *terminalPrompter) readLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", errNoInput
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

func (p *terminalPrompter) readSecret(prompt string) (string, error) {
	f, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p.readLine(prompt)
	}

	fmt.Fprint(p.out, prompt)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("reading key: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
