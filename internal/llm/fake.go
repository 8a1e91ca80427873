package llm

import (
	"context"
	"sync"
)

// FakeResponse is one scripted reply.
type FakeResponse struct {
	Text string
	Err  error
}

// FakeCall records a call made to a Fake.
type FakeCall struct {
	Request Request
	Options Options
}

// HandlerFunc computes a reply from the call.
type HandlerFunc func(req Request, opts Options) (string, error)

// Fake is a deterministic Client for tests and dry runs. Scripted responses
// are consumed in order and the last one repeats; a handler, when set,
// answers every call after the script runs out.
type Fake struct {
	mu        sync.Mutex
	responses []FakeResponse
	handler   HandlerFunc
	calls     []FakeCall
}

// NewFake returns a Fake that replies with responses in order.
func NewFake(responses ...FakeResponse) *Fake {
	return &Fake{responses: responses}
}

// NewFakeHandler returns a Fake answering every call with fn.
func NewFakeHandler(fn HandlerFunc) *Fake {
	return &Fake{handler: fn}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Complete(ctx context.Context, req Request, opts Options) (*Completion, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, classify(ctx, "fake", err)
	}

	f.mu.Lock()
	idx := len(f.calls)
	f.calls = append(f.calls, FakeCall{Request: req, Options: opts})
	var (
		text string
		err  error
	)
	switch {
	case idx < len(f.responses):
		text, err = f.responses[idx].Text, f.responses[idx].Err
	case f.handler != nil:
		handler := f.handler
		f.mu.Unlock()
		text, err = handler(req, opts)
		f.mu.Lock()
	case len(f.responses) > 0:
		last := f.responses[len(f.responses)-1]
		text, err = last.Text, last.Err
	}
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if opts.Stream && opts.OnChunk != nil {
		opts.OnChunk(text)
	}
	return &Completion{Text: text, Model: opts.Model, Backend: "fake"}, nil
}

// Calls returns a copy of the recorded calls.
func (f *Fake) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}

// CallCount returns the number of calls made.
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
