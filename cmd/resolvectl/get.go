package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/golang/aetherresolve/collect"
	"github.com/golang/aetherresolve/connector"
	"github.com/golang/aetherresolve/repository"
	"github.com/golang/aetherresolve/resolver"
	"github.com/golang/aetherresolve/transport"
	"github.com/golang/aetherresolve/version"
)

const getShortHelp = `Resolve and download artifacts into the local repository`
const getLongHelp = `
Like resolve, but also fetches every resolved artifact's bytes from
-repo-url (a file:// or http(s):// base) through -repo-id, installing each
into the local repository, and prints where each ended up.
`

type getCommand struct {
	registryPath   string
	repoID         string
	repoURL        string
	checksumPolicy string
}

func (c *getCommand) Name() string      { return "get" }
func (c *getCommand) Args() string      { return "<groupId:artifactId:constraint>..." }
func (c *getCommand) ShortHelp() string { return getShortHelp }
func (c *getCommand) LongHelp() string  { return getLongHelp }

func (c *getCommand) Register(fs *pflag.FlagSet) {
	fs.StringVar(&c.registryPath, "registry", "", "path to the registry manifest TOML file")
	fs.StringVar(&c.repoID, "repo-id", "central", "repository id artifacts are attributed to once installed")
	fs.StringVar(&c.repoURL, "repo-url", "", "base URL artifacts are fetched from (file:// or http(s)://)")
	fs.StringVar(&c.checksumPolicy, "checksum-policy", "fail", "fail|warn|ignore")
}

func (c *getCommand) Run(e *env, args []string) error {
	if c.registryPath == "" {
		return errors.New("-registry is required")
	}
	if c.repoURL == "" {
		return errors.New("-repo-url is required")
	}
	if len(args) == 0 {
		return errors.New("at least one groupId:artifactId:constraint argument is required")
	}

	policy, err := parseChecksumPolicy(c.checksumPolicy)
	if err != nil {
		return err
	}

	scheme := version.NewScheme()
	manifest, err := loadRegistryManifest(c.registryPath)
	if err != nil {
		return err
	}
	registry, err := newManifestRegistry(scheme, manifest)
	if err != nil {
		return err
	}
	roots, err := parseRootDependencies(scheme, args)
	if err != nil {
		return err
	}

	collector := collect.NewCollector(collect.NewCachingDescriptorReader(registry), registry)
	session := resolver.NewSession(collector, e.LocalRepo, e.SyncBackend)

	tr, err := newTransporter(c.repoURL)
	if err != nil {
		return err
	}
	defer tr.Close()

	conn := &connector.Connector{
		RepositoryID: c.repoID,
		Transporter:  tr,
		LocalRepo:    e.LocalRepo,
		Layout:       repository.Layout{},
		Policy:       policy,
	}

	req := &collect.Request{Dependencies: roots}
	results, _, err := session.ResolveArtifacts(context.Background(), req, conn)
	if err != nil {
		return errors.Wrap(err, "resolving artifacts")
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			e.Err.Printf("%s: %v", r.Coordinate, r.Err)
			failed++
			continue
		}
		e.Out.Printf("%s -> %s", r.Coordinate, r.LocalPath)
	}
	if failed > 0 {
		return errors.Errorf("%d of %d artifacts failed to download", failed, len(results))
	}
	return nil
}

func parseChecksumPolicy(s string) (connector.ChecksumPolicy, error) {
	switch strings.ToLower(s) {
	case "fail":
		return connector.PolicyFail, nil
	case "warn":
		return connector.PolicyWarn, nil
	case "ignore":
		return connector.PolicyIgnore, nil
	default:
		return 0, errors.Errorf("invalid -checksum-policy %q, want fail|warn|ignore", s)
	}
}

func newTransporter(baseURL string) (transport.Transporter, error) {
	switch {
	case strings.HasPrefix(baseURL, "file://"):
		return transport.NewFileTransporter(strings.TrimPrefix(baseURL, "file://")), nil
	case strings.HasPrefix(baseURL, "http://"), strings.HasPrefix(baseURL, "https://"):
		return transport.NewHTTPTransporter(baseURL, http.DefaultClient), nil
	default:
		return nil, errors.Errorf("unsupported repository URL scheme in %q, want file:// or http(s)://", baseURL)
	}
}
