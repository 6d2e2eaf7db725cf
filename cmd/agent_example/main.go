// Command agent_example serves a small dice-rolling agent: few-shot
// examples steer the platform's LLM, and the roll func answers callbacks
// with the roll result plus a text embed of the individual dice.
package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	agents "github.com/fixieai/agents-go"
	"github.com/fixieai/agents-go/internal/config"
	"github.com/fixieai/agents-go/observer"
	"github.com/fixieai/agents-go/userstore/platform"
	"github.com/fixieai/agents-go/userstore/postgres"
	"github.com/fixieai/agents-go/userstore/sqlite"
)

const basePrompt = "I am an agent that rolls virtual dice."

var fewShots = []string{
	"Q: Roll a die.\nAsk Func[roll]: 1 6\nFunc[roll] says: 4\nA: You rolled a 4!",
	"Q: Roll two 20-sided dice.\nAsk Func[roll]: 2 20\nFunc[roll] says: 12 17\nA: You rolled 12 and 17.",
}

func main() {
	// 1. Load config
	cfg := config.Load(os.Getenv("FIXIE_CONFIG"))
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// 2. Pick a storage backend
	stores, cleanup, err := userStores(cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	// 3. Build the agent
	agent, err := agents.New(basePrompt, fewShots,
		agents.WithLogger(logger),
		agents.WithUserStore(stores),
	)
	if err != nil {
		log.Fatal(err)
	}
	agent.MustRegisterFunc("roll", roll)
	if err := agent.Validate(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Serve, with OTEL instrumentation when enabled
	handler := http.Handler(agent.Handler())
	if cfg.Observer.Enabled {
		inst, shutdown, err := observer.Init(ctx, "agent-example")
		if err != nil {
			log.Fatal(err)
		}
		defer shutdown(context.Background())
		handler = observer.Middleware(inst, handler)
	}

	srv := &http.Server{Addr: cfg.Agent.Listen, Handler: handler}
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()
	logger.Info("serving", "addr", cfg.Agent.Listen)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

// userStores builds the per-query storage provider for the configured
// backend. The sqlite and postgres backends key all queries to one local
// user, which is what development against a single test account needs.
func userStores(cfg config.Config, logger *slog.Logger) (agents.UserStoreProvider, func(), error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		store := sqlite.New(cfg.Storage.SQLitePath, sqlite.WithLogger(logger))
		if err := store.Init(context.Background()); err != nil {
			return nil, nil, err
		}
		return agents.FixedUserStore(store.User("local")), func() { store.Close() }, nil
	case "postgres":
		pool, err := pgxpool.New(context.Background(), cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		store := postgres.New(pool)
		if err := store.Init(context.Background()); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return agents.FixedUserStore(store.User("local")), pool.Close, nil
	case "platform":
		provider := func(token string) agents.UserStore {
			return platform.New(cfg.Platform.APIURL, cfg.Agent.ID, token, platform.WithLogger(logger))
		}
		return provider, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// roll parses "<count> <sides>" from the query text and replies with the
// rolls, attaching them as a text embed as well.
func roll(ctx context.Context, req agents.FuncRequest) (agents.Message, error) {
	fields := strings.Fields(req.Message.Text)
	count, sides := 1, 6
	if len(fields) > 0 {
		if n, err := strconv.Atoi(fields[0]); err == nil && n > 0 {
			count = n
		}
	}
	if len(fields) > 1 {
		if n, err := strconv.Atoi(fields[1]); err == nil && n > 1 {
			sides = n
		}
	}

	rolls := make([]string, count)
	for i := range rolls {
		rolls[i] = strconv.Itoa(rand.Intn(sides) + 1)
	}
	text := strings.Join(rolls, " ")

	embed, err := agents.NewEmbed("text/plain", base64.StdEncoding.EncodeToString([]byte(text)))
	if err != nil {
		return agents.Message{}, err
	}
	return agents.TextMessage(text).WithEmbed("rolls", embed), nil
}
