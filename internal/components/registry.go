// Package components maps logical component keys onto the addresses of
// remotely hosted widgets and assembles what the page needs to mount them.
package components

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Key is a logical component identifier such as "nearOrg.papersPage".
type Key string

// Network selects which set of component addresses is served.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
)

// ParseNetwork validates a network id.
func ParseNetwork(v string) (Network, error) {
	switch Network(v) {
	case Mainnet, Testnet:
		return Network(v), nil
	default:
		return "", fmt.Errorf("components: unknown network %q", v)
	}
}

// Entries maps keys onto widget sources ("account/widget/Name").
type Entries map[Key]string

// Clone copies e.
func (e Entries) Clone() Entries {
	out := make(Entries, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Keys returns the keys in lexical order.
func (e Entries) Keys() []Key {
	keys := make([]Key, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

const (
	HomePage             Key = "nearOrg.homePage"
	PapersPage           Key = "nearOrg.papersPage"
	DataAvailabilityPage Key = "nearOrg.dataAvailabilityPage"
	EthDenverPage        Key = "nearOrg.ethDenverPage"
	ApplicationsPage     Key = "nearOrg.applicationsPage"
	DocumentationPage    Key = "nearOrg.documentationPage"
	ContactUsPage        Key = "nearOrg.contactUsPage"
	GetFundingPage       Key = "nearOrg.getFundingPage"
	GatewaysPage         Key = "nearOrg.gatewaysPage"
)

// DefaultEntries returns the built-in addresses for each network.
func DefaultEntries() map[Network]Entries {
	return map[Network]Entries{
		Mainnet: {
			HomePage:             "near/widget/NearOrg.HomePage",
			PapersPage:           "near/widget/NearOrg.Papers.Index",
			DataAvailabilityPage: "near/widget/NearOrg.DataAvailabilityPage",
			EthDenverPage:        "near/widget/NearOrg.EthDenver2024",
			ApplicationsPage:     "near/widget/NearOrg.ApplicationsPage",
			DocumentationPage:    "near/widget/NearOrg.Documentation.Index",
			ContactUsPage:        "near/widget/NearOrg.ContactUsPage",
			GetFundingPage:       "near/widget/NearOrg.Ecosystem.GetFundingPage",
			GatewaysPage:         "near/widget/NearOrg.GatewaysPage",
		},
		Testnet: {
			HomePage:             "one.testnet/widget/NearOrg.HomePage",
			PapersPage:           "one.testnet/widget/NearOrg.Papers.Index",
			DataAvailabilityPage: "one.testnet/widget/NearOrg.DataAvailabilityPage",
			EthDenverPage:        "one.testnet/widget/NearOrg.EthDenver2024",
			ApplicationsPage:     "one.testnet/widget/NearOrg.ApplicationsPage",
			DocumentationPage:    "one.testnet/widget/NearOrg.Documentation.Index",
			ContactUsPage:        "one.testnet/widget/NearOrg.ContactUsPage",
			GetFundingPage:       "one.testnet/widget/NearOrg.Ecosystem.GetFundingPage",
			GatewaysPage:         "one.testnet/widget/NearOrg.GatewaysPage",
		},
	}
}

// LoadFile reads per-network overrides from a YAML file of the form
//
//	mainnet:
//	  nearOrg.homePage: near/widget/NearOrg.HomePage
func LoadFile(path string) (map[Network]Entries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("components: read registry: %w", err)
	}
	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("components: parse registry: %w", err)
	}
	out := make(map[Network]Entries, len(raw))
	for name, entries := range raw {
		network, err := ParseNetwork(name)
		if err != nil {
			return nil, err
		}
		e := make(Entries, len(entries))
		for k, src := range entries {
			if _, _, ok := SplitSource(src); !ok {
				return nil, fmt.Errorf("components: %s %s: invalid source %q", network, k, src)
			}
			e[Key(k)] = src
		}
		out[network] = e
	}
	return out, nil
}

// Merge overlays overrides on base without modifying either.
func Merge(base, overrides Entries) Entries {
	out := base.Clone()
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Event is sent to watchers when the registry table is replaced.
type Event struct {
	Keys      int
	Timestamp time.Time
}

// Registry holds the addresses for one network. Reads are concurrent with
// Replace, which swaps the whole table at once.
type Registry struct {
	network  Network
	mu       sync.RWMutex
	entries  Entries
	watchers []chan Event
}

// NewRegistry builds a registry for network seeded with entries.
func NewRegistry(network Network, entries Entries) *Registry {
	return &Registry{network: network, entries: entries.Clone()}
}

// Network returns the network the registry serves.
func (r *Registry) Network() Network { return r.network }

// Lookup returns the source registered for key.
func (r *Registry) Lookup(key Key) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.entries[key]
	return src, ok
}

// Snapshot returns a copy of the current entries.
func (r *Registry) Snapshot() Entries {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries.Clone()
}

// Replace swaps in a new table and notifies watchers.
func (r *Registry) Replace(entries Entries) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = entries.Clone()

	event := Event{Keys: len(r.entries), Timestamp: time.Now()}
	for _, w := range r.watchers {
		select {
		case w <- event:
		default:
			// Watcher is behind; it will see the next event.
		}
	}
}

// Watch returns a channel that receives registry events.
func (r *Registry) Watch() <-chan Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan Event, 8)
	r.watchers = append(r.watchers, ch)
	return ch
}

// Unwatch removes and closes a channel returned by Watch.
func (r *Registry) Unwatch(ch <-chan Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, w := range r.watchers {
		if w == ch {
			close(w)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			return
		}
	}
}

// ErrUnknownKey is returned when a key has no registered address.
var ErrUnknownKey = errors.New("components: unknown component key")
