package types

import (
	"fmt"

	"github.com/cuemby/pivot/pkg/corerr"
)

// Validate checks the structural invariants of an appliance that don't
// require walking the dependency graph (that's pkg/dag's job): id grammar,
// duplicate container ids, cmd/args exclusivity, short-reference
// resolution, and declared-volume coverage for mounts. It returns a
// corerr.Invalid (422) on the first violation found.
func (a *Appliance) Validate() error {
	if !ValidID(a.ID) {
		return corerr.Invalid("invalid appliance id %q", a.ID)
	}

	seen := make(map[string]bool, len(a.Containers))
	for _, c := range a.Containers {
		if !ValidID(c.ID) {
			return corerr.Invalid("invalid container id %q", c.ID)
		}
		if seen[c.ID] {
			return corerr.Invalid("duplicate container id %q", c.ID)
		}
		seen[c.ID] = true

		if len(c.Cmd) > 0 && len(c.Args) > 0 {
			return corerr.Invalid("container %q: cmd and args are mutually exclusive", c.ID)
		}

		if c.Kind == KindJob {
			if c.Resources.GPU > 0 {
				return corerr.Invalid("container %q: job containers may not request GPU", c.ID)
			}
			if c.NetworkMode == NetworkContainer {
				return corerr.Invalid("container %q: job containers may not use CONTAINER network mode", c.ID)
			}
		}

		if c.Instances <= 0 {
			c.Instances = 1
		}
		if c.Resources.CPUs < 1 {
			return corerr.Invalid("container %q: cpus must be >= 1", c.ID)
		}
	}

	for _, c := range a.Containers {
		for _, dep := range c.Dependencies {
			if !seen[dep] {
				return corerr.Invalid("container %q depends on unknown container %q", c.ID, dep)
			}
		}
		for _, field := range []string{joinStrings(c.Cmd), joinStrings(c.Args), joinEnv(c.Env)} {
			for _, ref := range ShortRefs(field) {
				if !seen[ref] {
					return corerr.Invalid("container %q references unknown container %q via @%s", c.ID, ref, ref)
				}
			}
		}
	}

	declared := make(map[string]bool)
	if a.DataPersistence != nil {
		for _, v := range a.DataPersistence.Volumes {
			if !ValidID(v.ID) {
				return corerr.Invalid("invalid volume id %q", v.ID)
			}
			declared[v.ID] = true
		}
	}
	for _, c := range a.Containers {
		for _, m := range c.Mounts {
			if !declared[m.Src] {
				return corerr.Invalid("container %q mounts undeclared volume %q", c.ID, m.Src)
			}
		}
	}

	return nil
}

func joinStrings(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += " "
		}
		out += s
	}
	return out
}

func joinEnv(env map[string]string) string {
	out := ""
	for _, v := range env {
		out += v + " "
	}
	return out
}

// SeqIDs returns the "<containerID>-<seqNo>" ids for a container's
// Instances.
func SeqIDs(c *Container) []string {
	ids := make([]string, 0, c.Instances)
	for i := 0; i < c.Instances; i++ {
		ids = append(ids, fmt.Sprintf("%s-%d", c.ID, i))
	}
	return ids
}
