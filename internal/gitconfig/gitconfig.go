// Package gitconfig reads and writes the global Git identity.
//
// All access to git goes through a Runner so callers never shell out
// directly and tests can substitute a fake.
package gitconfig

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	KeyName  = "user.name"
	KeyEmail = "user.email"
)

// Client manipulates user.name and user.email in git's --global scope.
type Client struct {
	runner Runner
}

// New creates a Client backed by runner.
func New(runner Runner) *Client {
	return &Client{runner: runner}
}

// CurrentEmail returns the global user.email, or "" when it is unset.
// Any other git failure is returned as an error.
func (c *Client) CurrentEmail(ctx context.Context) (string, error) {
	return c.get(ctx, KeyEmail)
}

// CurrentName returns the global user.name, or "" when it is unset.
func (c *Client) CurrentName(ctx context.Context) (string, error) {
	return c.get(ctx, KeyName)
}

// SetIdentity writes user.email and then user.name. The first failure is
// returned; a failure on user.name leaves the new email in place.
func (c *Client) SetIdentity(ctx context.Context, name, email string) error {
	if err := c.set(ctx, KeyEmail, email); err != nil {
		return err
	}
	return c.set(ctx, KeyName, name)
}

func (c *Client) get(ctx context.Context, key string) (string, error) {
	out, err := c.runner.Run(ctx, "config", "--global", "--get", key)
	if err != nil {
		// git config --get exits 1 when the key is not set.
		var ce *CommandError
		if errors.As(err, &ce) && ce.ExitCode == 1 {
			return "", nil
		}
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return strings.TrimSpace(out), nil
}

func (c *Client) set(ctx context.Context, key, value string) error {
	if _, err := c.runner.Run(ctx, "config", "--global", key, value); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}
