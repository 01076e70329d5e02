package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// Warning is a finding that does not stop compilation.
type Warning struct {
	Code    string   `json:"code"`
	Path    []string `json:"path,omitempty"` // cycle path: ["a", "b", "a"]
	Message string   `json:"message"`
	Level   string   `json:"level"` // "warning" or "info"
}

// AnalyzeCycles reports recursion between the relations of p.
//
// Recursion is legal: positive cycles are reported at info level.
// Recursion through negation is a warning because such relations may
// resolve to unknown.
func AnalyzeCycles(p *Program) []Warning {
	if len(p.deps) == 0 {
		return []Warning{}
	}
	sccs := tarjanSCC(p.deps)
	warnings := []Warning{}
	for _, scc := range sccs {
		if len(scc) > 1 || hasSelfLoop(scc[0], p.deps) {
			warnings = append(warnings, sccToWarning(scc, p.deps))
		}
	}
	sort.Slice(warnings, func(i, j int) bool {
		return strings.Join(warnings[i].Path, ",") < strings.Join(warnings[j].Path, ",")
	})
	return warnings
}

// edge is a call from a rule of one relation to another relation.
type edge struct {
	to       string
	negative bool
}

// dependencyGraph maps a relation to the relations its rules call.
type dependencyGraph map[string][]edge

func hasSelfLoop(node string, graph dependencyGraph) bool {
	for _, e := range graph[node] {
		if e.to == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components. Nodes are visited in
// sorted order so the output is deterministic; each component is sorted.
func tarjanSCC(graph dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, e := range graph[v] {
			w := e.to
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Strings(scc)
			sccs = append(sccs, scc)
		}
	}

	for _, node := range sortedKeys(graph) {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func sccToWarning(scc []string, graph dependencyGraph) Warning {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}
	negative := false
	for _, n := range scc {
		for _, e := range graph[n] {
			if members[e.to] && e.negative {
				negative = true
			}
		}
	}

	var path []string
	if len(scc) == 1 {
		path = []string{scc[0], scc[0]}
	} else {
		path = reconstructCyclePath(scc, graph)
	}
	pathStr := strings.Join(path, " → ")
	if negative {
		return Warning{
			Code:    ErrCodeNegativeCycle,
			Path:    path,
			Message: fmt.Sprintf("recursion through negation: %s", pathStr),
			Level:   "warning",
		}
	}
	return Warning{
		Path:    path,
		Message: fmt.Sprintf("recursive relations: %s", pathStr),
		Level:   "info",
	}
}

// reconstructCyclePath follows edges inside the component from its first
// member until it returns there.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)
	for {
		visited[current] = true
		var next string
		for _, e := range graph[current] {
			if members[e.to] && (!visited[e.to] || e.to == start) {
				next = e.to
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
