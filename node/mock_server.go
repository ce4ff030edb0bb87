package node

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/flashbots/go-utils/httplogger"
	"github.com/go-chi/chi/v5"
	"github.com/ruteri/amp-confirm/interfaces"
	"go.uber.org/atomic"
)

// MockHandler answers one JSON-RPC method. A non-nil *interfaces.NodeError is sent
// back as a JSON-RPC error.
type MockHandler func(params []json.RawMessage) (any, *interfaces.NodeError)

// MockServer is an in-process Elements JSON-RPC endpoint. Like Elements, it answers
// RPC errors with HTTP 500 and unknown methods with HTTP 404.
type MockServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]MockHandler
	calls    map[string]*atomic.Int32
	log      *slog.Logger
}

// NewMockServer starts a mock node. Callers must Close it.
func NewMockServer(log *slog.Logger) *MockServer {
	s := &MockServer{
		handlers: make(map[string]MockHandler),
		calls:    make(map[string]*atomic.Int32),
		log:      log,
	}

	mux := chi.NewRouter()
	mux.With(s.httpLogger).Post("/", s.handleRPC)
	s.Server = httptest.NewServer(mux)
	return s
}

// Handle registers h for method, replacing any previous handler.
func (s *MockServer) Handle(method string, h MockHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

// HandleResult registers a handler that always returns result.
func (s *MockServer) HandleResult(method string, result any) {
	s.Handle(method, func([]json.RawMessage) (any, *interfaces.NodeError) {
		return result, nil
	})
}

// Calls returns how many times method was invoked.
func (s *MockServer) Calls(method string) int32 {
	return s.counter(method).Load()
}

func (s *MockServer) counter(method string) *atomic.Int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calls[method]
	if !ok {
		c = atomic.NewInt32(0)
		s.calls[method] = c
	}
	return c
}

func (s *MockServer) httpLogger(next http.Handler) http.Handler {
	return httplogger.LoggingMiddlewareSlog(s.log, next)
}

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result"`
	Error   *rpcErrorBody   `json:"error"`
}

func (s *MockServer) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.counter(req.Method).Inc()

	s.mu.Lock()
	handler, ok := s.handlers[req.Method]
	s.mu.Unlock()

	resp := rpcResponse{Version: "2.0", ID: req.ID}
	status := http.StatusOK
	if !ok {
		resp.Error = &rpcErrorBody{Code: interfaces.RPCMethodNotFound, Message: "Method not found"}
		status = http.StatusNotFound
	} else if result, nodeErr := handler(req.Params); nodeErr != nil {
		resp.Error = &rpcErrorBody{Code: nodeErr.Code, Message: nodeErr.Message}
		status = http.StatusInternalServerError
	} else {
		resp.Result = result
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
