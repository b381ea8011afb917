// Package rules implements the built-in detection catalog.
package rules

import "github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/engine/rule"

// Builtin returns one instance of every built-in rule, in catalog order.
func Builtin() []rule.Rule {
	return []rule.Rule{
		SessionLeak{},
		LoopAccess{},
		SitemapShadowing{},
		DuplicateIdentifier{},
		HardcodedCredentials{},
		OpenAPIContract{},
	}
}

// BuiltinProvider plugs the built-in catalog into registry discovery.
type BuiltinProvider struct{}

func (BuiltinProvider) Name() string                  { return "builtin" }
func (BuiltinProvider) Provide() ([]rule.Rule, error) { return Builtin(), nil }
