package agents

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
)

// Func handles one platform callback into the agent. It receives the query
// message plus per-user facilities and returns the reply message. Errors
// propagate to the platform as a failed query; the SDK never retries or
// swallows them.
type Func func(ctx context.Context, req FuncRequest) (Message, error)

// FuncRequest carries everything a func needs to answer one query.
type FuncRequest struct {
	// Message is the query the platform sent.
	Message Message
	// AccessToken is the bearer token accompanying the query, "" when the
	// platform sent none.
	AccessToken string
	// Storage is key/value storage bound to the querying user. Nil when the
	// agent was built without WithUserStore.
	Storage UserStore
	// OAuth acquires third-party tokens for the querying user. Nil when the
	// agent was built without WithOAuth.
	OAuth *OAuthHandler
}

// Agent is a code-shot agent: a base prompt and few-shot examples that the
// platform's LLM orchestration interprets, plus registered funcs the
// platform calls back into over the Agent Protocol. Register all funcs
// before serving; the registry is read-only once the agent serves.
type Agent struct {
	basePrompt string
	fewShots   []FewShot
	funcs      map[string]Func
	logger     *slog.Logger
	stores     UserStoreProvider
	oauth      *OAuthHandler
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets a structured logger for the serving layer. If not set,
// logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// WithUserStore installs per-user storage. The provider is invoked once per
// query with the query's access token and its result is handed to the func
// as FuncRequest.Storage.
func WithUserStore(p UserStoreProvider) Option {
	return func(a *Agent) { a.stores = p }
}

// WithOAuth installs an OAuth handler, exposed to funcs as FuncRequest.OAuth.
func WithOAuth(h *OAuthHandler) Option {
	return func(a *Agent) { a.oauth = h }
}

// New creates an Agent from a base prompt and few-shot example blocks.
// Each entry of fewShots may hold one stanza or several blank-line
// separated ones; all are parsed up front so malformed examples fail fast.
func New(basePrompt string, fewShots []string, opts ...Option) (*Agent, error) {
	a := &Agent{
		basePrompt: basePrompt,
		funcs:      make(map[string]Func),
		logger:     nopLogger,
	}
	for i, block := range fewShots {
		shots, err := ParseFewShots(block)
		if err != nil {
			return nil, fmt.Errorf("few-shot block %d: %w", i+1, err)
		}
		a.fewShots = append(a.fewShots, shots...)
	}
	for _, o := range opts {
		o(a)
	}
	return a, nil
}

// BasePrompt returns the agent's base prompt.
func (a *Agent) BasePrompt() string { return a.basePrompt }

// FewShots returns the parsed few-shot stanzas.
func (a *Agent) FewShots() []FewShot {
	return append([]FewShot(nil), a.fewShots...)
}

var funcNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validFuncName(name string) bool {
	return funcNameRe.MatchString(name)
}

// RegisterFunc registers fn under name. Names must be identifiers
// ([A-Za-z_][A-Za-z0-9_]*) and unique within the agent.
func (a *Agent) RegisterFunc(name string, fn Func) error {
	if !validFuncName(name) {
		return fmt.Errorf("register func: invalid name %q", name)
	}
	if fn == nil {
		return fmt.Errorf("register func %q: nil func", name)
	}
	if _, exists := a.funcs[name]; exists {
		return fmt.Errorf("register func: %q already registered", name)
	}
	a.funcs[name] = fn
	return nil
}

// MustRegisterFunc is RegisterFunc that panics on error. Meant for
// program-startup registration where a bad name is a programming error.
func (a *Agent) MustRegisterFunc(name string, fn Func) {
	if err := a.RegisterFunc(name, fn); err != nil {
		panic(err)
	}
}

// FuncNames returns the registered func names, sorted.
func (a *Agent) FuncNames() []string {
	names := make([]string, 0, len(a.funcs))
	for name := range a.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every func referenced by the few-shot examples is
// registered. Call it after registration, before serving.
func (a *Agent) Validate() error {
	for i, shot := range a.fewShots {
		for _, name := range shot.funcCalls {
			if _, ok := a.funcs[name]; !ok {
				return fmt.Errorf("few-shot %d references unregistered func %q", i+1, name)
			}
		}
	}
	return nil
}

// nopLogger discards all output. Used when no WithLogger option is given.
var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
