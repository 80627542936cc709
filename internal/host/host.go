// Package host runs the native messaging loop: read one framed request,
// answer it, write one framed response, repeat until the browser closes
// stdin.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/task-agents/native-host/internal/agents"
	"github.com/task-agents/native-host/internal/diag"
	"github.com/task-agents/native-host/internal/history"
	"github.com/task-agents/native-host/internal/nativemsg"
	"github.com/task-agents/native-host/internal/resolver"
)

var (
	// ErrFatal marks failures that stop the loop; the process should exit non-zero.
	ErrFatal = errors.New("native host stopped")
)

// PathResolver is the subset of resolver.Resolver the host uses.
type PathResolver interface {
	ResolveFile(ctx context.Context, filename string, searchPaths []string) resolver.Result
	ResolveFolder(ctx context.Context, foldername string) resolver.Result
}

// AgentLister lists agent templates.
type AgentLister interface {
	List(ctx context.Context) ([]agents.Descriptor, error)
}

// HistoryStore persists command history.
type HistoryStore interface {
	Add(e history.Entry) (history.Entry, error)
	List() ([]history.Entry, error)
}

// Options wires a Host. Agents and History may be nil, in which case the
// matching actions answer with a failure.
type Options struct {
	Resolver PathResolver
	Agents   AgentLister
	History  HistoryStore
	Sink     diag.Sink
}

// Host dispatches requests to the services behind it.
type Host struct {
	resolver PathResolver
	agents   AgentLister
	history  HistoryStore
	sink     diag.Sink
}

func New(opts Options) *Host {
	sink := opts.Sink
	if sink == nil {
		sink = diag.Discard
	}
	return &Host{
		resolver: opts.Resolver,
		agents:   opts.Agents,
		history:  opts.History,
		sink:     sink,
	}
}

// errInterrupted ends the loop when ctx is cancelled between requests.
var errInterrupted = errors.New("interrupted")

// Serve runs the loop over in and out. It returns nil when in reaches end of
// input or when ctx is cancelled while waiting for the next message; a
// request already being handled is answered first. Any other returned error
// wraps ErrFatal and has already been logged with a stack trace.
func (h *Host) Serve(ctx context.Context, in io.Reader, out io.Writer) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: panic: %v", ErrFatal, p)
			diag.Error(h.sink, "fatal error", "err", err.Error(), "stack", string(debug.Stack()))
		}
	}()

	cwd, _ := os.Getwd()
	diag.Info(h.sink, "native host started", "pid", os.Getpid(), "cwd", cwd)

	err = h.loop(ctx, nativemsg.NewReader(in), nativemsg.NewWriter(out))
	switch {
	case errors.Is(err, errInterrupted):
		diag.Info(h.sink, "interrupted, exiting")
		return nil
	case err != nil:
		err = fmt.Errorf("%w: %v", ErrFatal, err)
		diag.Error(h.sink, "fatal error", "err", err.Error(), "stack", string(debug.Stack()))
		return err
	}
	diag.Info(h.sink, "input closed, exiting")
	return nil
}

type frame struct {
	body []byte
	err  error
}

// readFrames feeds frames from r until a read fails for good or done is
// closed. A read blocked on r outlives done; the caller is expected to exit.
func readFrames(r *nativemsg.Reader, done <-chan struct{}) <-chan frame {
	ch := make(chan frame)
	go func() {
		defer close(ch)
		for {
			body, err := r.Next()
			select {
			case ch <- frame{body: body, err: err}:
			case <-done:
				return
			}
			if err != nil && !errors.Is(err, nativemsg.ErrMessageTooLarge) {
				return
			}
		}
	}()
	return ch
}

func (h *Host) loop(ctx context.Context, r *nativemsg.Reader, w *nativemsg.Writer) error {
	// A request in flight always runs to completion.
	reqCtx := context.WithoutCancel(ctx)

	done := make(chan struct{})
	defer close(done)
	incoming := readFrames(r, done)

	for {
		var f frame
		select {
		case <-ctx.Done():
			return errInterrupted
		case f = <-incoming:
		}

		switch {
		case errors.Is(f.err, io.EOF):
			return nil
		case errors.Is(f.err, nativemsg.ErrMessageTooLarge):
			diag.Warn(h.sink, "dropping oversized message", "err", f.err.Error())
			continue
		case f.err != nil:
			return fmt.Errorf("failed to read message: %w", f.err)
		case f.body == nil:
			continue
		}

		var req *Request
		if err := json.Unmarshal(f.body, &req); err != nil {
			diag.Warn(h.sink, "dropping malformed message", "err", err.Error(), "raw", string(f.body))
			continue
		}
		if req == nil {
			diag.Warn(h.sink, "dropping empty message", "raw", string(f.body))
			continue
		}
		diag.Info(h.sink, "received", "request", string(f.body))

		if err := h.send(w, h.Handle(reqCtx, *req)); err != nil {
			return err
		}
	}
}

// Handle answers a single request. It never fails; problems become failure
// results.
func (h *Host) Handle(ctx context.Context, req Request) any {
	switch req.Action {
	case ActionGetFilePath:
		if req.Foldername != "" {
			return resolver.Failure("request must name either filename or foldername, not both")
		}
		return h.resolver.ResolveFile(ctx, req.Filename, req.SearchPaths)

	case ActionGetFolderPath:
		if req.Filename != "" {
			return resolver.Failure("request must name either filename or foldername, not both")
		}
		return h.resolver.ResolveFolder(ctx, req.Foldername)

	case ActionGetAgents:
		if h.agents == nil {
			return resolver.Failure("agents are not configured")
		}
		list, err := h.agents.List(ctx)
		if err != nil {
			diag.Error(h.sink, "failed to list agents", "err", err.Error())
			return resolver.Failure(err.Error())
		}
		return AgentsResponse{Success: true, Agents: list}

	case ActionSaveCommand:
		if h.history == nil {
			return resolver.Failure("history is not configured")
		}
		if req.Data == nil {
			return resolver.Failure("data is required")
		}
		saved, err := h.history.Add(*req.Data)
		if err != nil {
			diag.Error(h.sink, "failed to save command", "err", err.Error())
			return resolver.Failure(err.Error())
		}
		return SaveResponse{Success: true, Data: &saved}

	case ActionGetCommandHistory:
		if h.history == nil {
			return resolver.Failure("history is not configured")
		}
		entries, err := h.history.List()
		if err != nil {
			diag.Error(h.sink, "failed to read history", "err", err.Error())
			return resolver.Failure(err.Error())
		}
		return HistoryResponse{Success: true, Data: entries}

	default:
		return resolver.Failure(fmt.Sprintf("Unknown action: %s", req.Action))
	}
}

func (h *Host) send(w *nativemsg.Writer, resp any) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	if len(body) > nativemsg.MaxOutgoing {
		diag.Warn(h.sink, "response too large, sending failure instead", "bytes", len(body))
		body, err = json.Marshal(resolver.Failure(fmt.Sprintf(
			"response of %d bytes exceeds the %d byte message limit", len(body), nativemsg.MaxOutgoing)))
		if err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
	}

	diag.Info(h.sink, "sending", "response", string(body))
	if err := w.WriteFrame(body); err != nil {
		return err
	}
	return nil
}
