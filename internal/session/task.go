package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/streamnode/streamnode/internal/wire"
)

// handleTask executes one server-issued relay task and reports the outcome
// on the same channel. Every task yields exactly one message: a response on
// completion (whatever the HTTP status), an error message on any failure.
func (s *Session) handleTask(ctx context.Context, l *link, in wire.Inbound) {
	// A panicking task must not take down the session.
	defer func() {
		if r := recover(); r != nil {
			s.reg.TaskFailed()
			s.log.Error("relay task panicked", "task", in.TaskID, "panic", r)
			l.enqueue(wire.NewError(in.TaskID, fmt.Sprintf("panic: %v", r)))
		}
	}()

	status, err := s.execute(ctx, in.Data)
	if err != nil {
		s.reg.TaskFailed()
		s.log.Error("relay task failed", "task", in.TaskID, "err", err)
		l.enqueue(wire.NewError(in.TaskID, err.Error()))
		return
	}

	s.reg.TaskCompleted()
	s.log.Info("relay task handled", "task", in.TaskID, "status", status)
	l.enqueue(wire.NewResponse(in.TaskID, status))
}

// execute performs the relayed HTTP request and returns the observed status.
// The body is attached only for POST; the task's timeout (milliseconds)
// bounds the whole call.
func (s *Session) execute(ctx context.Context, t wire.Request) (int, error) {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(t.Timeout)*time.Millisecond)
		defer cancel()
	}

	var body io.Reader
	if t.Method == http.MethodPost && t.Body != "" {
		body = strings.NewReader(t.Body)
	}

	req, err := http.NewRequestWithContext(ctx, t.Method, t.URL, body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// The result payload is canned; the real body is only drained so the
	// connection can be reused.
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	return resp.StatusCode, nil
}
