package rule

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/parser"
)

// Provider is the discovery extension point: front ends register providers
// that contribute additional rules at startup.
type Provider interface {
	Name() string
	Provide() ([]Rule, error)
}

// Registry holds the active rule set. Registration is idempotent by rule ID:
// a duplicate is a warning and a no-op, never an overwrite.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
	order []string // registration order, for stable iteration
}

func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

func (r *Registry) Register(rule Rule) {
	if rule == nil || rule.ID() == "" {
		slog.Warn("ignoring rule with empty id")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rules[rule.ID()]; exists {
		slog.Warn("duplicate rule registration ignored", "rule", rule.ID())
		return
	}
	r.rules[rule.ID()] = rule
	r.order = append(r.order, rule.ID())
}

// Discover asks each provider for rules and registers all of them. A broken
// provider (error or panic) is logged and skipped so it cannot prevent the
// remaining providers from loading.
func (r *Registry) Discover(providers ...Provider) {
	for _, p := range providers {
		rules, err := safeProvide(p)
		if err != nil {
			slog.Warn("rule provider failed", "provider", p.Name(), "error", err)
			continue
		}
		for _, rule := range rules {
			r.Register(rule)
		}
	}
}

func safeProvide(p Provider) (rules []Rule, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			rules = nil
			err = fmt.Errorf("provider panic: %v", rec)
		}
	}()
	return p.Provide()
}

// Get returns the rule with the given ID, or nil.
func (r *Registry) Get(id string) Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rules[id]
}

// All returns every registered rule in registration order.
func (r *Registry) All() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Rule, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.rules[id])
	}
	return out
}

// ByFileKind returns the rules applicable to the given kind, in registration
// order.
func (r *Registry) ByFileKind(kind parser.FileKind) []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Rule
	for _, id := range r.order {
		if AppliesTo(r.rules[id], kind) {
			out = append(out, r.rules[id])
		}
	}
	return out
}

// ByCategory returns the rules in the given category, in registration order.
func (r *Registry) ByCategory(cat Category) []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Rule
	for _, id := range r.order {
		if r.rules[id].Category() == cat {
			out = append(out, r.rules[id])
		}
	}
	return out
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}
