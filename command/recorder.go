package command

import (
	"context"
	"strings"
	"sync"
)

// Response is what a Recorder returns for a scripted command line.
type Response struct {
	Output string
	Err    error
}

// Recorder is an in-memory Factory that records every argument list it is
// asked to run. Unscripted commands succeed with empty output.
type Recorder struct {
	mu        sync.Mutex
	calls     [][]string
	responses map[string]Response
	fallback  *Response
}

// Expect scripts the response for an exact command line ("arg0 arg1 ...").
func (r *Recorder) Expect(commandLine string, resp Response) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.responses == nil {
		r.responses = make(map[string]Response)
	}
	r.responses[commandLine] = resp
}

// Always scripts the response for every command without an Expect entry.
func (r *Recorder) Always(resp Response) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.fallback = &resp
}

func (r *Recorder) Create(args []string) Command {
	return &recordedCommand{
		recorder: r,
		args:     append([]string(nil), args...),
	}
}

// Calls returns the executed argument lists in order.
func (r *Recorder) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	calls := make([][]string, len(r.calls))
	for i, c := range r.calls {
		calls[i] = append([]string(nil), c...)
	}
	return calls
}

func (r *Recorder) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.calls)
}

func (r *Recorder) LastCall() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.calls) == 0 {
		return nil
	}
	return append([]string(nil), r.calls[len(r.calls)-1]...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = nil
}

func (r *Recorder) record(args []string) Response {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, args)
	if resp, ok := r.responses[strings.Join(args, " ")]; ok {
		return resp
	}
	if r.fallback != nil {
		return *r.fallback
	}
	return Response{}
}

type recordedCommand struct {
	recorder *Recorder
	args     []string
}

func (rc *recordedCommand) Execute(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", newError(rc.args, -1, err)
	}

	resp := rc.recorder.record(rc.args)
	if resp.Err != nil {
		return "", newError(rc.args, 1, resp.Err)
	}
	return strings.TrimSpace(resp.Output), nil
}
