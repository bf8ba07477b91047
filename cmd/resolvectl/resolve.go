package main

import (
	"context"
	"log"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/golang/aetherresolve/collect"
	"github.com/golang/aetherresolve/graph"
	"github.com/golang/aetherresolve/resolver"
	"github.com/golang/aetherresolve/version"
)

const resolveShortHelp = `Resolve a dependency graph against an offline registry manifest`
const resolveLongHelp = `
Reads the registry manifest at -registry, resolves the coordinates given as
arguments (groupId:artifactId:constraint, one per argument) against it, and
prints the resulting tree, one line per resolved artifact.
`

type resolveCommand struct {
	registryPath string
}

func (c *resolveCommand) Name() string      { return "resolve" }
func (c *resolveCommand) Args() string      { return "<groupId:artifactId:constraint>..." }
func (c *resolveCommand) ShortHelp() string { return resolveShortHelp }
func (c *resolveCommand) LongHelp() string  { return resolveLongHelp }

func (c *resolveCommand) Register(fs *pflag.FlagSet) {
	fs.StringVar(&c.registryPath, "registry", "", "path to the registry manifest TOML file")
}

func (c *resolveCommand) Run(e *env, args []string) error {
	if c.registryPath == "" {
		return errors.New("-registry is required")
	}
	if len(args) == 0 {
		return errors.New("at least one groupId:artifactId:constraint argument is required")
	}

	solution, err := resolveFromRegistry(e, c.registryPath, args)
	if err != nil {
		return err
	}
	printSolution(e.Out, solution)
	return nil
}

// resolveFromRegistry loads the manifest at registryPath and resolves the
// given root coordinate specs against it, shared by the resolve and diff
// subcommands.
func resolveFromRegistry(e *env, registryPath string, specs []string) (*resolver.Solution, error) {
	scheme := version.NewScheme()

	manifest, err := loadRegistryManifest(registryPath)
	if err != nil {
		return nil, err
	}
	registry, err := newManifestRegistry(scheme, manifest)
	if err != nil {
		return nil, err
	}
	roots, err := parseRootDependencies(scheme, specs)
	if err != nil {
		return nil, err
	}

	collector := collect.NewCollector(collect.NewCachingDescriptorReader(registry), registry)
	session := resolver.NewSession(collector, e.LocalRepo, e.SyncBackend)

	req := &collect.Request{Dependencies: roots}
	solution, err := session.ResolveDependencies(context.Background(), req)
	if err != nil {
		return nil, errors.Wrap(err, "resolving dependencies")
	}
	return solution, nil
}

func printSolution(out *log.Logger, solution *resolver.Solution) {
	solution.Arena.Walk(solution.Root, func(path []*graph.Node, n *graph.Node) bool {
		if n == solution.Root || n.Dependency == nil {
			return true
		}
		indent := ""
		for range path[1:] {
			indent += "  "
		}
		out.Printf("%s%s (%s)", indent, n.Dependency.Artifact, n.Dependency.Scope)
		return true
	})
	if len(solution.Breaks) > 0 {
		out.Printf("%d cycle(s) broken during resolution:", len(solution.Breaks))
		for _, b := range solution.Breaks {
			out.Printf("  %+v -> %+v (depth %d)", b.From, b.To, b.Depth)
		}
	}
}
