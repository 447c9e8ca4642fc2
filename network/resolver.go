// Package network maps network labels to JSON-RPC endpoints.
package network

import (
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ruteri/zaph/interfaces"
)

// Context is the resolved connection target for one invocation.
type Context struct {
	RPCURL  string
	Network string
}

var defaultNetworks = map[string]string{
	"mainnet":   "https://mainnet.infura.io/v3/YOUR_PROJECT_ID",
	"sepolia":   "https://sepolia.infura.io/v3/YOUR_PROJECT_ID",
	"goerli":    "https://goerli.infura.io/v3/YOUR_PROJECT_ID",
	"localhost": "http://localhost:8545",
	"anvil":     "http://localhost:8545",
}

// Resolver resolves network labels against a table of known endpoints.
type Resolver struct {
	networks map[string]string
}

// NewResolver returns a resolver with the built-in network table.
func NewResolver() *Resolver {
	networks := make(map[string]string, len(defaultNetworks))
	for name, url := range defaultNetworks {
		networks[name] = url
	}
	return &Resolver{networks: networks}
}

type networksFile struct {
	Networks map[string]struct {
		RPCURL string `toml:"rpc_url"`
	} `toml:"networks"`
}

// LoadFile merges network definitions from a TOML file:
//
//	[networks.holesky]
//	rpc_url = "https://holesky.example/rpc"
//
// Entries override built-in ones with the same name.
func (r *Resolver) LoadFile(path string) error {
	var parsed networksFile
	if _, err := toml.DecodeFile(path, &parsed); err != nil {
		return interfaces.Configf("could not parse networks file %s: %v", path, err)
	}
	for name, entry := range parsed.Networks {
		if entry.RPCURL == "" {
			return interfaces.Configf("network '%s' in %s has no rpc_url", name, path)
		}
		r.networks[strings.ToLower(name)] = entry.RPCURL
	}
	return nil
}

// Lookup returns the endpoint registered for a label.
func (r *Resolver) Lookup(network string) (string, bool) {
	url, ok := r.networks[strings.ToLower(network)]
	return url, ok
}

// Names lists the known labels in alphabetical order.
func (r *Resolver) Names() []string {
	names := make([]string, 0, len(r.networks))
	for name := range r.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve picks the endpoint for an invocation. An explicit endpoint always
// wins; the label is then only carried along as metadata.
func (r *Resolver) Resolve(rpcURL, network string) (Context, error) {
	if rpcURL != "" {
		return Context{RPCURL: rpcURL, Network: network}, nil
	}

	if network != "" {
		url, ok := r.Lookup(network)
		if !ok {
			return Context{}, interfaces.Validationf("unknown network name: %s (known: %s)", network, strings.Join(r.Names(), ", "))
		}
		return Context{RPCURL: url, Network: network}, nil
	}

	return Context{}, interfaces.Configf("you must provide either --rpc-url or --network")
}
