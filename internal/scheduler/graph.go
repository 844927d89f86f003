package scheduler

import (
	"fmt"

	"github.com/replyforge/email-responder/internal/domain"
)

// graph holds the forward (unmet dependencies) and reverse (dependents)
// adjacency maps for one batch. The unmet sets shrink as emails complete;
// the dependents map is fixed after construction.
type graph struct {
	unmet      map[string]map[string]struct{}
	dependents map[string]map[string]struct{}
}

// buildGraph constructs both maps and verifies the batch is feasible:
// every dependency must reference a known email, no self-dependencies,
// and the whole graph must be acyclic. Any violation aborts construction —
// no partial graph is ever produced.
func buildGraph(emails []domain.Email) (*graph, error) {
	g := &graph{
		unmet:      make(map[string]map[string]struct{}, len(emails)),
		dependents: make(map[string]map[string]struct{}),
	}

	known := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		known[e.ID] = struct{}{}
	}

	for _, e := range emails {
		deps := make(map[string]struct{}, len(e.Dependencies))
		for _, dep := range e.Dependencies {
			if dep == e.ID {
				return nil, fmt.Errorf("%w: %s depends on itself", domain.ErrDependencyCycle, e.ID)
			}
			if _, ok := known[dep]; !ok {
				return nil, fmt.Errorf("%w: %s referenced by %s", domain.ErrUnknownEmail, dep, e.ID)
			}
			deps[dep] = struct{}{}
			children := g.dependents[dep]
			if children == nil {
				children = make(map[string]struct{})
				g.dependents[dep] = children
			}
			children[e.ID] = struct{}{}
		}
		g.unmet[e.ID] = deps
	}

	if err := g.checkAcyclic(); err != nil {
		return nil, err
	}
	return g, nil
}

// checkAcyclic runs Kahn's algorithm over a scratch copy of the in-degrees.
// If any node survives the peeling, it sits on a cycle.
func (g *graph) checkAcyclic() error {
	inDegree := make(map[string]int, len(g.unmet))
	for id, deps := range g.unmet {
		inDegree[id] = len(deps)
	}

	var ready []string
	for id, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}

	resolved := 0
	for len(ready) > 0 {
		id := ready[len(ready)-1]
		ready = ready[:len(ready)-1]
		resolved++
		for child := range g.dependents[id] {
			inDegree[child]--
			if inDegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	if resolved != len(g.unmet) {
		var stuck []string
		for id, deg := range inDegree {
			if deg > 0 {
				stuck = append(stuck, id)
			}
		}
		return fmt.Errorf("%w: unresolvable ids %v", domain.ErrDependencyCycle, stuck)
	}
	return nil
}
