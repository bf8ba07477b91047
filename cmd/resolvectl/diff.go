package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/golang/aetherresolve/resolver"
)

const diffShortHelp = `Report added/removed/changed artifacts between two resolutions`
const diffLongHelp = `
Resolves -old against -old-registry and -new against -new-registry (each a
comma-free list of groupId:artifactId:constraint, repeatable), then prints
the coordinates added, removed, or changed between the two resolutions.
`

type diffCommand struct {
	oldRegistry string
	newRegistry string
	oldSpecs    []string
	newSpecs    []string
}

func (c *diffCommand) Name() string      { return "diff" }
func (c *diffCommand) Args() string      { return "" }
func (c *diffCommand) ShortHelp() string { return diffShortHelp }
func (c *diffCommand) LongHelp() string  { return diffLongHelp }

func (c *diffCommand) Register(fs *pflag.FlagSet) {
	fs.StringVar(&c.oldRegistry, "old-registry", "", "registry manifest for the old resolution")
	fs.StringVar(&c.newRegistry, "new-registry", "", "registry manifest for the new resolution (defaults to -old-registry)")
	fs.StringArrayVar(&c.oldSpecs, "old", nil, "groupId:artifactId:constraint for the old resolution (repeatable)")
	fs.StringArrayVar(&c.newSpecs, "new", nil, "groupId:artifactId:constraint for the new resolution (repeatable)")
}

func (c *diffCommand) Run(e *env, args []string) error {
	if c.oldRegistry == "" {
		return errors.New("-old-registry is required")
	}
	if c.newRegistry == "" {
		c.newRegistry = c.oldRegistry
	}
	if len(c.oldSpecs) == 0 || len(c.newSpecs) == 0 {
		return errors.New("both -old and -new must be given at least once")
	}

	oldSolution, err := resolveFromRegistry(e, c.oldRegistry, c.oldSpecs)
	if err != nil {
		return errors.Wrap(err, "resolving -old")
	}
	newSolution, err := resolveFromRegistry(e, c.newRegistry, c.newSpecs)
	if err != nil {
		return errors.Wrap(err, "resolving -new")
	}

	d := resolver.DiffSolutions(oldSolution, newSolution)
	printDiff(e, d)
	return nil
}

func printDiff(e *env, d resolver.Diff) {
	for _, coord := range d.Added {
		e.Out.Printf("+ %s", coord)
	}
	for _, coord := range d.Removed {
		e.Out.Printf("- %s", coord)
	}
	for _, ch := range d.Changed {
		e.Out.Printf("~ %s:%s %s -> %s", ch.Key.GroupID, ch.Key.ArtifactID, ch.OldVersion, ch.NewVersion)
	}
	if len(d.Added)+len(d.Removed)+len(d.Changed) == 0 {
		e.Out.Printf("no differences")
	}
}
