package server

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bgbg/asop/internal/asop"
	"github.com/bgbg/asop/internal/store"
	"github.com/bgbg/asop/internal/variable"
	"github.com/google/uuid"
)

// DimensionConfig describes one variable of a session.
type DimensionConfig struct {
	Name string `json:"name"`
	Kind string `json:"kind,omitempty"` // continuous (default) or integer

	// Values is the explicit support. Without it the support is Points values
	// spread over [Lower, Upper], or every integer in it for integer variables.
	Values []float64 `json:"values,omitempty"`
	Lower  float64   `json:"lower"`
	Upper  float64   `json:"upper"`
	Points int       `json:"points,omitempty"`

	SamplingStd *float64 `json:"samplingStd,omitempty"`
	Strategy    string   `json:"strategy,omitempty"`
}

// SessionConfig creates an ask/tell optimizer. Either Count or Dimensions
// defines the variables unless FromSnapshot names a stored run to resume.
type SessionConfig struct {
	Count        int               `json:"count,omitempty"`
	Dimensions   []DimensionConfig `json:"dimensions,omitempty"`
	Direction    string            `json:"direction,omitempty"`
	Scaling      string            `json:"scaling,omitempty"`
	Seed         uint64            `json:"seed,omitempty"`
	FromSnapshot string            `json:"fromSnapshot,omitempty"`
}

// errBadSession marks configuration errors that map to 400 responses.
var errBadSession = errors.New("invalid session configuration")

// Request limits for one session.
const (
	maxSessionDimensions = 4096
	maxSampleSize        = 100000
)

// Session wraps one optimizer. The optimizer is not safe for concurrent use,
// so every call goes through mu.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu  sync.Mutex
	opt *asop.Optimizer
}

// SessionInfo is the JSON view of a session.
type SessionInfo struct {
	ID           string    `json:"id"`
	Names        []string  `json:"names"`
	Direction    string    `json:"direction"`
	Scaling      string    `json:"scaling"`
	Rounds       int       `json:"rounds"`
	BestValue    *float64  `json:"bestValue,omitempty"`
	BestSolution []float64 `json:"bestSolution,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Info returns a consistent view of the session.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := SessionInfo{
		ID:        s.ID,
		Names:     s.opt.Names(),
		Direction: s.opt.Direction().String(),
		Scaling:   s.opt.Scaling().String(),
		Rounds:    s.opt.Rounds(),
		CreatedAt: s.CreatedAt,
	}
	if best, ok := s.opt.Best(); ok {
		info.BestValue = &best.Value
		info.BestSolution = best.Solution
	}
	return info
}

// Sample draws n solutions.
func (s *Session) Sample(n int) ([][]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opt.Sample(n)
}

// Learn feeds evaluated solutions back to the optimizer.
func (s *Session) Learn(solutions [][]float64, values []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opt.Learn(solutions, values)
}

// Distribution is the support and PMF of one dimension.
type Distribution struct {
	Name string    `json:"name"`
	Kind string    `json:"kind"`
	X    []float64 `json:"x"`
	PDF  []float64 `json:"pdf"`
}

// Distributions returns the current PMF of every dimension.
func (s *Session) Distributions() []Distribution {
	s.mu.Lock()
	defer s.mu.Unlock()

	vars := s.opt.Variables()
	out := make([]Distribution, len(vars))
	for i, v := range vars {
		out[i] = Distribution{
			Name: v.Name(),
			Kind: string(v.Kind()),
			X:    v.X(),
			PDF:  v.PDFValues(),
		}
	}
	return out
}

// Snapshot captures the session state under its ID.
func (s *Session) Snapshot() *store.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opt.Snapshot(s.ID)
}

// SessionManager keeps the live sessions.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	store    store.Store
}

// NewSessionManager creates a manager. st may be nil; sessions then cannot be
// persisted or resumed.
func NewSessionManager(st store.Store) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		store:    st,
	}
}

// Create builds a session from cfg.
func (sm *SessionManager) Create(cfg SessionConfig) (*Session, error) {
	o, err := sm.newOptimizer(cfg)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		opt:       o,
	}

	sm.mu.Lock()
	sm.sessions[s.ID] = s
	sm.mu.Unlock()
	return s, nil
}

// Get returns the session with the given ID.
func (sm *SessionManager) Get(id string) (*Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sessions[id]
	return s, ok
}

// List returns all sessions, oldest first.
func (sm *SessionManager) List() []*Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	out := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Delete drops a session. It reports whether the session existed.
func (sm *SessionManager) Delete(id string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	_, ok := sm.sessions[id]
	delete(sm.sessions, id)
	return ok
}

func (sm *SessionManager) newOptimizer(cfg SessionConfig) (*asop.Optimizer, error) {
	var opts []asop.Option
	if cfg.Scaling != "" {
		policy, err := asop.ParseScaling(cfg.Scaling)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errBadSession, err)
		}
		opts = append(opts, asop.WithScaling(policy))
	}

	if cfg.FromSnapshot != "" {
		if sm.store == nil {
			return nil, errNoStore
		}
		snap, err := sm.store.LoadSnapshot(cfg.FromSnapshot)
		if err != nil {
			return nil, err
		}
		return asop.FromSnapshot(nil, snap, opts...)
	}

	direction := asop.Minimize
	if cfg.Direction != "" {
		d, err := asop.ParseDirection(cfg.Direction)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errBadSession, err)
		}
		direction = d
	}
	opts = append(opts, asop.WithDirection(direction), asop.WithSeed(cfg.Seed), asop.WithoutObjective())

	if cfg.Count > maxSessionDimensions || len(cfg.Dimensions) > maxSessionDimensions {
		return nil, fmt.Errorf("%w: at most %d dimensions", errBadSession, maxSessionDimensions)
	}

	var dims asop.Dimensions
	switch {
	case len(cfg.Dimensions) > 0:
		vars := make([]variable.Variable, len(cfg.Dimensions))
		seen := make(map[string]bool, len(cfg.Dimensions))
		for i, dc := range cfg.Dimensions {
			v, err := buildVariable(dc, i, cfg.Seed)
			if err != nil {
				return nil, fmt.Errorf("%w: dimension %d: %w", errBadSession, i, err)
			}
			if seen[v.Name()] {
				return nil, fmt.Errorf("%w: duplicate dimension name %q", errBadSession, v.Name())
			}
			seen[v.Name()] = true
			vars[i] = v
		}
		dims = asop.Variables(vars...)
	case cfg.Count > 0:
		dims = asop.Count(cfg.Count)
	default:
		return nil, fmt.Errorf("%w: count or dimensions required", errBadSession)
	}

	o, err := asop.New(nil, dims, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadSession, err)
	}
	return o, nil
}

func buildVariable(dc DimensionConfig, index int, seed uint64) (variable.Variable, error) {
	kind := variable.KindContinuous
	if dc.Kind != "" {
		kind = variable.Kind(dc.Kind)
	}

	name := dc.Name
	if name == "" {
		name = fmt.Sprintf("X%d", index)
	}
	opts := []variable.Option{variable.WithName(name)}

	switch {
	case len(dc.Values) > 0:
		opts = append(opts, variable.WithValues(dc.Values))
	case kind == variable.KindInteger:
		opts = append(opts, variable.WithValues([]float64{dc.Lower, dc.Upper}))
	default:
		opts = append(opts, variable.WithRange(dc.Lower, dc.Upper, dc.Points))
	}

	if dc.SamplingStd != nil {
		opts = append(opts, variable.WithSamplingStd(*dc.SamplingStd))
	}
	if dc.Strategy != "" {
		s, err := variable.ParseStrategy(dc.Strategy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, variable.WithStrategy(s))
	}
	if seed != 0 {
		opts = append(opts, variable.WithSeed(seed+uint64(index)))
	}
	return variable.New(kind, opts...)
}
