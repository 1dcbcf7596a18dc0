package mailer

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	authcore "github.com/casekit/authcore"
)

// Writer renders each message as one JSON line on an io.Writer. Useful for
// development setups where codes and reset links should land in a log
// instead of a mailbox.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriter wraps out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

type writerEntry struct {
	Time    time.Time `json:"time"`
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
}

// Send implements [authcore.Mailer].
func (w *Writer) Send(ctx context.Context, msg authcore.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	line, err := json.Marshal(writerEntry{
		Time:    time.Now().UTC(),
		To:      msg.To,
		Subject: msg.Subject,
		Body:    msg.Body,
	})
	if err != nil {
		return err
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = w.out.Write(line)
	return err
}
