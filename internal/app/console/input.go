package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"roomchat/internal/pkg/errs"
)

// Intents is the subset of the session driven by terminal input.
type Intents interface {
	InputChanged(ctx context.Context, text string) error
	SubmitMessage(ctx context.Context, text string) error
}

// ReadLines submits every line read from in as a chat message until in is exhausted,
// ctx is canceled or the session stops. Blank lines are skipped.
// Send failures are reported by the session to its presenter and do not stop the loop.
func ReadLines(ctx context.Context, in io.Reader, session Intents) error {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimRight(scanner.Text(), "\r")

		if err := session.InputChanged(ctx, line); err != nil {
			return err
		}

		err := session.SubmitMessage(ctx, line)
		switch {
		case err == nil:
		case errors.Is(err, errs.EmptyMessage):
			// Nothing was sent; leave the input state as typed.
			if err := session.InputChanged(ctx, ""); err != nil {
				return err
			}
		case errors.Is(err, errs.SessionStopped), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("console: read input: %w", err)
	}
	return nil
}
