package exchange

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/quantfabric/unifex/config"
)

// Factory constructs a configured venue client.
type Factory func(cfg *config.Exchange) (Client, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a venue constructor available by name. Venue packages call
// this from init.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = f
}

// New resolves a registered venue by name and constructs a client from the
// supplied configuration.
func New(name string, cfg *config.Exchange) (Client, error) {
	registryMu.RLock()
	f, ok := registry[strings.ToLower(name)]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("exchange %q not registered", name)
	}
	return f(cfg)
}

// Registered returns the sorted names of all available venues.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
