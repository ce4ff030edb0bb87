package registry

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/flashbots/go-utils/httplogger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ruteri/amp-confirm/interfaces"
)

// ReceivedReport is a confirmation request accepted (or rejected) by MockServer.
type ReceivedReport struct {
	Endpoint  string
	AssetUUID string
	Body      json.RawMessage
}

// MockServer is an in-memory registry served over HTTP.
//
// Distribution confirmations mark the matching assignments as distributed and
// blinder updates are applied to the stored transactions, so that repeating an
// operation against it behaves like repeating it against the real service.
type MockServer struct {
	*httptest.Server

	Username string
	Password string

	mu           sync.Mutex
	token        string
	lostOutputs  map[string]*interfaces.LostOutputs
	assignments  map[string][]interfaces.Assignment
	transactions map[string][]interfaces.AssetTransaction
	reportStatus int
	reports      []ReceivedReport
	log          *slog.Logger
}

// NewMockServer starts a mock registry accepting username and password.
// Callers must Close it.
func NewMockServer(username, password string, log *slog.Logger) *MockServer {
	s := &MockServer{
		Username:     username,
		Password:     password,
		token:        uuid.NewString(),
		lostOutputs:  make(map[string]*interfaces.LostOutputs),
		assignments:  make(map[string][]interfaces.Assignment),
		transactions: make(map[string][]interfaces.AssetTransaction),
		reportStatus: http.StatusOK,
		log:          log,
	}

	mux := chi.NewRouter()
	mux.Use(s.httpLogger)
	mux.Route("/api", func(r chi.Router) {
		r.Post("/user/obtain_token", s.handleObtainToken)
		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Get("/assets/{asset_uuid}/balance", s.handleBalance)
			r.Get("/assets/{asset_uuid}/assignments", s.handleAssignments)
			r.Get("/assets/{asset_uuid}/txs", s.handleTransactions)
			r.Post("/assets/{asset_uuid}/reissue-confirm", s.handleReport)
			r.Post("/assets/{asset_uuid}/burn-confirm", s.handleReport)
			r.Post("/assets/{asset_uuid}/distributions/{distribution_uuid}/confirm", s.handleDistributionConfirm)
			r.Post("/assets/{asset_uuid}/update-blinders", s.handleUpdateBlinders)
		})
	})

	s.Server = httptest.NewServer(mux)
	return s
}

// BaseURL returns the API location in the "{}" template form used by action files.
func (s *MockServer) BaseURL() string {
	return s.URL + "/api/{}"
}

// AddAsset registers an asset with no lost outputs.
func (s *MockServer) AddAsset(assetUUID string) {
	s.SetLostOutputs(assetUUID, &interfaces.LostOutputs{})
}

func (s *MockServer) SetLostOutputs(assetUUID string, lost *interfaces.LostOutputs) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lostOutputs[assetUUID] = lost
}

func (s *MockServer) SetAssignments(assetUUID string, assignments []interfaces.Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[assetUUID] = assignments
}

func (s *MockServer) SetAssetTransactions(assetUUID string, txs []interfaces.AssetTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[assetUUID] = txs
}

// FailReports makes every confirmation endpoint answer with status.
// http.StatusOK restores normal behavior.
func (s *MockServer) FailReports(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reportStatus = status
}

// Reports returns every confirmation request received so far.
func (s *MockServer) Reports() []ReceivedReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ReceivedReport(nil), s.reports...)
}

// Assignments returns the current assignment list of an asset.
func (s *MockServer) Assignments(assetUUID string) []interfaces.Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]interfaces.Assignment(nil), s.assignments[assetUUID]...)
}

func (s *MockServer) httpLogger(next http.Handler) http.Handler {
	return httplogger.LoggingMiddlewareSlog(s.log, next)
}

func (s *MockServer) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "token "+s.token {
			http.Error(w, `{"detail":"Invalid token."}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *MockServer) handleObtainToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Username != s.Username || req.Password != s.Password {
		http.Error(w, `{"non_field_errors":["Unable to log in with provided credentials."]}`, http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]string{"token": s.token})
}

func (s *MockServer) handleBalance(w http.ResponseWriter, r *http.Request) {
	assetUUID := chi.URLParam(r, "asset_uuid")

	s.mu.Lock()
	lost, ok := s.lostOutputs[assetUUID]
	s.mu.Unlock()

	if !ok {
		http.Error(w, `{"detail":"Not found."}`, http.StatusNotFound)
		return
	}

	resp := interfaces.LostOutputs{
		LostOutputs:           nonNil(lost.LostOutputs),
		ReissuanceLostOutputs: nonNil(lost.ReissuanceLostOutputs),
	}
	writeJSON(w, resp)
}

func (s *MockServer) handleAssignments(w http.ResponseWriter, r *http.Request) {
	assetUUID := chi.URLParam(r, "asset_uuid")

	s.mu.Lock()
	assignments := append([]interfaces.Assignment{}, s.assignments[assetUUID]...)
	s.mu.Unlock()

	writeJSON(w, assignments)
}

func (s *MockServer) handleTransactions(w http.ResponseWriter, r *http.Request) {
	assetUUID := chi.URLParam(r, "asset_uuid")

	s.mu.Lock()
	txs := append([]interfaces.AssetTransaction{}, s.transactions[assetUUID]...)
	s.mu.Unlock()

	writeJSON(w, txs)
}

// record stores the request body and reports whether the request should succeed.
func (s *MockServer) record(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports = append(s.reports, ReceivedReport{
		Endpoint:  r.URL.Path,
		AssetUUID: chi.URLParam(r, "asset_uuid"),
		Body:      body,
	})

	if s.reportStatus != http.StatusOK {
		http.Error(w, `{"detail":"confirmation rejected"}`, s.reportStatus)
		return nil, false
	}
	return body, true
}

func (s *MockServer) handleReport(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.record(w, r); !ok {
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *MockServer) handleDistributionConfirm(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.record(w, r); !ok {
		return
	}

	assetUUID := chi.URLParam(r, "asset_uuid")
	distributionUUID := chi.URLParam(r, "distribution_uuid")

	s.mu.Lock()
	for i := range s.assignments[assetUUID] {
		if s.assignments[assetUUID][i].DistributionUUID == distributionUUID {
			s.assignments[assetUUID][i].IsDistributed = true
		}
	}
	s.mu.Unlock()

	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *MockServer) handleUpdateBlinders(w http.ResponseWriter, r *http.Request) {
	body, ok := s.record(w, r)
	if !ok {
		return
	}

	var update interfaces.BlinderUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	assetUUID := chi.URLParam(r, "asset_uuid")

	s.mu.Lock()
	for i, tx := range s.transactions[assetUUID] {
		if tx.TxID != update.TxID {
			continue
		}
		for j, out := range tx.Outputs {
			if out.Vout == update.Vout {
				s.transactions[assetUUID][i].Outputs[j].AssetBlinder = update.AssetBlinder
				s.transactions[assetUUID][i].Outputs[j].AmountBlinder = update.AmountBlinder
			}
		}
	}
	s.mu.Unlock()

	writeJSON(w, map[string]string{"status": "ok"})
}

func nonNil(outpoints []interfaces.Outpoint) []interfaces.Outpoint {
	if outpoints == nil {
		return []interfaces.Outpoint{}
	}
	return outpoints
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}
