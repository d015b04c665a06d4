// Package api implements clausekeeper's HTTP service: a thin orchestration
// layer over internal/parser, internal/resolve, and internal/evaluator,
// adapted from the gRPC SensorAPIService's "dependency injection, no
// evaluation methods on the service itself" discipline.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/solatis/clausekeeper/internal/core/config"
	"github.com/solatis/clausekeeper/internal/core/db"
	"github.com/solatis/clausekeeper/internal/evaluator"
	"github.com/solatis/clausekeeper/internal/parser"
	"github.com/solatis/clausekeeper/internal/resolve"
	"github.com/solatis/clausekeeper/internal/trace"
	"github.com/solatis/clausekeeper/internal/types"
)

// Service implements POST / and GET /health. It holds an in-memory
// parse cache keyed by the raw submitted rule text (a byte-identical
// resubmission skips lexing/parsing/resolving entirely) and, when cfg.DBURL
// configures one, a supplemental persistent cache that survives restarts
// and tracks hit counts across the fleet.
type Service struct {
	cfg    *config.ServerConfig
	cache  *db.Queries
	mu     sync.RWMutex
	parsed map[string]*types.RuleSet
}

// NewService creates a Service. cache may be nil — the server then runs
// with the in-memory parse cache only, no persistent bookkeeping.
func NewService(cfg *config.ServerConfig, cache *db.Queries) *Service {
	return &Service{
		cfg:    cfg,
		cache:  cache,
		parsed: make(map[string]*types.RuleSet),
	}
}

type evalRequest struct {
	Rule  string `json:"rule"`
	Data  any    `json:"data"`
	Trace bool   `json:"trace,omitempty"`
}

type evalResponse struct {
	Result   bool            `json:"result"`
	Labels   map[string]bool `json:"labels,omitempty"`
	Trace    *trace.Node     `json:"trace,omitempty"`
	Error    string          `json:"error,omitempty"`
	Rule     []string        `json:"rule"`
	Data     any             `json:"data"`
	RuleHash string          `json:"rule_hash,omitempty"`
}

// Health responds to GET /health. Always open, never gated by auth.
func (s *Service) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Evaluate responds to POST /: parses/resolves (or reuses a cached
// RuleSet for) the submitted rule text, evaluates it against data, and
// writes back result/labels/trace/error exactly as spec.md §6 shapes it,
// plus the supplemental rule_hash field.
func (s *Service) Evaluate(w http.ResponseWriter, r *http.Request) {
	requestID := types.NewRequestID()
	var req evalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, req, http.StatusBadRequest, err)
		return
	}

	if len(req.Rule) > s.cfg.MaxRuleTextSize {
		s.writeError(w, req, http.StatusBadRequest, types.ErrRuleTextTooLarge)
		return
	}

	ruleSet, err := s.resolveRuleSet(req.Rule)
	if err != nil {
		log.Printf("request %s: rule load failed: %v", requestID, err)
		s.writeError(w, req, http.StatusBadRequest, err)
		return
	}

	deadline := time.Now().Add(s.cfg.RequestTimeout)
	result, err := evaluator.Evaluate(ruleSet, req.Data, evaluator.Options{Trace: req.Trace, Deadline: deadline})
	if err != nil {
		log.Printf("request %s: evaluation failed: %v", requestID, err)
		s.writeError(w, req, http.StatusUnprocessableEntity, err)
		return
	}

	resp := evalResponse{
		Result:   result.Verdict,
		Labels:   result.Labels,
		Rule:     []string{req.Rule},
		Data:     req.Data,
		RuleHash: ruleSet.Hash,
	}
	if req.Trace {
		resp.Trace = result.Trace
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", ruleSet.Hash)
	_ = json.NewEncoder(w).Encode(resp)
}

// resolveRuleSet returns the parsed, resolved RuleSet for source, reusing
// the in-memory cache on a byte-identical repeat and recording the sighting
// in the supplemental persistent cache when one is configured.
func (s *Service) resolveRuleSet(source string) (*types.RuleSet, error) {
	s.mu.RLock()
	cached, ok := s.parsed[source]
	s.mu.RUnlock()
	if ok {
		s.recordSighting(cached, source)
		return cached, nil
	}

	rules, err := parser.ParseRules(source)
	if err != nil {
		return nil, err
	}
	ruleSet, err := resolve.Build(rules)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.parsed[source] = ruleSet
	s.mu.Unlock()

	s.recordSighting(ruleSet, source)
	return ruleSet, nil
}

// recordSighting updates the supplemental persistent cache, best-effort:
// a failure here never fails the request, since the cache is inert with
// respect to evaluation results (SPEC_FULL §7/§11).
func (s *Service) recordSighting(ruleSet *types.RuleSet, source string) {
	if s.cache == nil {
		return
	}
	golden := ""
	if ruleSet.Golden != nil {
		golden = ruleSet.Golden.Outcome
	}
	if err := s.cache.RecordRuleSet(ruleSet.Hash, source, len(ruleSet.Rules), golden); err != nil {
		log.Printf("ruleset cache record failed for hash %s: %v", ruleSet.Hash, err)
	}
}

func (s *Service) writeError(w http.ResponseWriter, req evalRequest, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(evalResponse{
		Result: false,
		Error:  err.Error(),
		Rule:   []string{req.Rule},
		Data:   req.Data,
	})
}
