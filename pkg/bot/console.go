package bot

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Console adapts stdin/stdout to the EventSource, Responder, and
// NameResolver interfaces for local runs without a chat transport.
// Every line read becomes an event from a single fixed actor.
type Console struct {
	actorID int64
	name    string
	scanner *bufio.Scanner
	out     io.Writer
}

// NewConsole creates a console transport for one actor.
func NewConsole(r io.Reader, w io.Writer, actorID int64, name string) *Console {
	return &Console{
		actorID: actorID,
		name:    name,
		scanner: bufio.NewScanner(r),
		out:     w,
	}
}

// Next implements EventSource. It returns io.EOF when input ends.
func (c *Console) Next(ctx context.Context) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return Event{}, err
		}
		return Event{}, io.EOF
	}
	return Event{ActorID: c.actorID, Text: c.scanner.Text()}, nil
}

// Send implements Responder. Button rows print as bracketed labels
// under the message.
func (c *Console) Send(_ context.Context, _ int64, msg Message) error {
	if _, err := fmt.Fprintln(c.out, msg.Text); err != nil {
		return err
	}
	for _, row := range msg.Buttons {
		if _, err := fmt.Fprintln(c.out, "  ["+strings.Join(row, "] [")+"]"); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(c.out)
	return err
}

// DisplayName implements NameResolver.
func (c *Console) DisplayName(context.Context, int64) (string, error) {
	return c.name, nil
}
