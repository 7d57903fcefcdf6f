package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

type tokenStore interface {
	Save(token string) error
	Forget() error
}

// TokenCLI manages the remote reporting bearer token kept in the OS keyring.
type TokenCLI struct {
	store tokenStore
}

// NewTokenCLI constructs the helper.
func NewTokenCLI(store tokenStore) (*TokenCLI, error) {
	if store == nil {
		return nil, errors.New("token cli: keyring not configured")
	}
	return &TokenCLI{store: store}, nil
}

// TokenOptions configures the token set command. When Token is empty it is read from Stdin.
type TokenOptions struct {
	Token  string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// SetCommand stores a token.
func (c *TokenCLI) SetCommand(opts TokenOptions) int {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		line, err := bufio.NewReader(opts.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			_, _ = fmt.Fprintf(opts.Stderr, "token set: read stdin: %v\n", err)
			return 1
		}
		token = strings.TrimSpace(line)
	}
	if token == "" {
		_, _ = fmt.Fprintln(opts.Stderr, "token set: token is required")
		return 1
	}
	if err := c.store.Save(token); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "token set: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(opts.Stdout, "token saved")
	return 0
}

// ForgetCommand removes the stored token.
func (c *TokenCLI) ForgetCommand(stdout, stderr io.Writer) int {
	if err := c.store.Forget(); err != nil {
		_, _ = fmt.Fprintf(stderr, "token forget: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(stdout, "token removed")
	return 0
}
