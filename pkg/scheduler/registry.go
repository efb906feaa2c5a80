package scheduler

import (
	"fmt"

	"github.com/cuemby/pivot/pkg/scheduler/policy"
)

// policyRegistry maps a configured scheduler name to the policy it builds.
// This replaces dotted-import-path dynamic plugin loading with a static,
// string-keyed lookup table populated at init.
var policyRegistry = map[string]func() policy.Policy{
	"default":             func() policy.Policy { return &policy.FirstFit{} },
	"firstfit":            func() policy.Policy { return &policy.FirstFit{} },
	"firstfit-decreasing": func() policy.Policy { return &policy.FirstFit{Decreasing: true} },
	"bestfit":             func() policy.Policy { return &policy.BestFit{} },
	"bestfit-decreasing":  func() policy.Policy { return &policy.BestFit{Decreasing: true} },
	"cost-aware":          func() policy.Policy { return &policy.CostAware{} },
}

// LookupPolicy resolves a configured global-scheduler policy name. Returns
// an error for any name not registered.
func LookupPolicy(name string) (policy.Policy, error) {
	build, ok := policyRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unknown scheduler policy %q", name)
	}
	return build(), nil
}

// RegisterLocationAware installs a location-aware policy under the given
// name, since it needs a live object-registry collaborator that can't be
// constructed from a bare name lookup.
func RegisterLocationAware(name string, p *policy.LocationAware) {
	policyRegistry[name] = func() policy.Policy { return p }
}

// RegisterCostAware installs a cost-aware policy configured with a
// specific locality table under the given name.
func RegisterCostAware(name string, p *policy.CostAware) {
	policyRegistry[name] = func() policy.Policy { return p }
}
