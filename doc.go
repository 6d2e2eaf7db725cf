// Package agents is a client library for building Fixie agents in Go.
//
// An agent is a request-handling service that plugs into the Fixie
// orchestration platform over its HTTP Agent Protocol: the platform reads
// the agent's base prompt and few-shot examples, and calls back into the
// agent's registered funcs while handling user queries. The LLM
// orchestration itself, the prompt interpretation, and the storage backend
// all live on the platform side; this package is the in-process glue an
// agent author links against.
//
// # Quick Start
//
//	agent, err := agents.New(
//		"I am an agent that rolls dice.",
//		[]string{"Q: Roll a die.\nAsk Func[roll]: 1\nFunc[roll] says: 4\nA: You rolled a 4!"},
//		agents.WithLogger(logger),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	agent.MustRegisterFunc("roll", roll)
//	if err := agent.Validate(); err != nil {
//		log.Fatal(err)
//	}
//	err = agent.ListenAndServe(ctx, ":8181")
//
// # Core Types
//
//   - [Embed] — an immutable binary/text attachment with a MIME content
//     type, built inline from base64 data ([NewEmbed]) or downloaded from a
//     remote URI ([FetchEmbed])
//   - [Message] — one exchange turn: text plus named Embeds
//   - [Func] — a registered callback the platform invokes over HTTP
//   - [UserStore] — per-user key/value storage (implementations in userstore/)
//   - [OAuthHandler] — third-party token acquisition for funcs that call
//     external APIs on the user's behalf
//
// # Storage Backends
//
// userstore/platform proxies the platform's hosted user storage;
// userstore/sqlite and userstore/postgres are self-hosted alternatives for
// development and on-prem deployments.
//
// See cmd/agent_example for a complete runnable agent.
package agents
