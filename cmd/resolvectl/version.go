package main

import "github.com/spf13/pflag"

const cliVersion = "0.1.0"

const versionShortHelp = `Print the resolvectl version`

type versionCommand struct{}

func (c *versionCommand) Name() string             { return "version" }
func (c *versionCommand) Args() string             { return "" }
func (c *versionCommand) ShortHelp() string        { return versionShortHelp }
func (c *versionCommand) LongHelp() string         { return versionShortHelp }
func (c *versionCommand) Register(*pflag.FlagSet) {}

func (c *versionCommand) Run(e *env, args []string) error {
	e.Out.Printf("resolvectl %s", cliVersion)
	return nil
}
