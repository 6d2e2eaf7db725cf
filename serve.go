package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// agentMetadata is the JSON body of the platform's GET / handshake.
type agentMetadata struct {
	BasePrompt string   `json:"base_prompt"`
	FewShots   []string `json:"few_shots"`
}

// errorBody is the JSON body of a failed query.
type errorBody struct {
	Error string `json:"error"`
}

// Handler returns the Agent Protocol handler:
//
//	GET  /        → agent metadata (base prompt + few-shot stanzas)
//	POST /{func}  → invoke a registered func with an AgentQuery body
//
// Mount it on your own server, or use ListenAndServe.
func (a *Agent) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", a.serveHTTP)
	return mux
}

// ListenAndServe serves the Agent Protocol on addr until ctx is cancelled,
// then drains in-flight queries with a bounded shutdown timeout.
func (a *Agent) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("agent: listen %s: %w", addr, err)
	}
	srv := &http.Server{Handler: a.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info("agent: serving", "addr", ln.Addr().String(), "funcs", a.FuncNames())
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *Agent) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		a.handleMetadata(w)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	a.handleFunc(w, r)
}

func (a *Agent) handleMetadata(w http.ResponseWriter) {
	meta := agentMetadata{BasePrompt: a.basePrompt, FewShots: []string{}}
	for _, shot := range a.fewShots {
		meta.FewShots = append(meta.FewShots, shot.Raw)
	}
	writeJSON(w, http.StatusOK, meta)
}

func (a *Agent) handleFunc(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := NewID()

	name := strings.Trim(r.URL.Path, "/")
	fn, ok := a.funcs[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: (&ErrUnknownFunc{Name: name}).Error()})
		return
	}

	var query AgentQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "decode query: " + err.Error()})
		return
	}

	token := query.AccessToken
	if token == "" {
		token = bearerToken(r)
	}

	req := FuncRequest{
		Message:     query.Message,
		AccessToken: token,
		OAuth:       a.oauth,
	}
	if a.stores != nil {
		req.Storage = a.stores(token)
	}

	reply, err := fn(r.Context(), req)
	if err != nil {
		a.logger.Error("agent: func failed",
			"func", name, "request_id", requestID, "error", err, "duration", time.Since(start))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}

	a.logger.Info("agent: query served",
		"func", name, "request_id", requestID, "duration", time.Since(start))
	writeJSON(w, http.StatusOK, AgentResponse{Message: reply})
}

// bearerToken extracts the token from an "Authorization: Bearer ..." header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(auth, prefix) {
		return auth[len(prefix):]
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
