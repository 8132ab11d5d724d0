package market

import (
	"fmt"
	"sync"
)

// Catalog is the per-venue instrument cache, keyed by both the venue-native
// id and the canonical symbol. It is populated once per load and append-only
// afterwards; callers must treat returned records as read-only.
type Catalog struct {
	mu       sync.RWMutex
	byID     map[string]*Market
	bySymbol map[string]*Market
	currency map[string]*Currency
	loaded   bool
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byID:     make(map[string]*Market),
		bySymbol: make(map[string]*Market),
		currency: make(map[string]*Currency),
	}
}

// Load replaces the catalog contents with the supplied records. Raw
// instruments that normalize to an already-seen canonical symbol are dropped,
// first-seen wins; duplicates are never merged.
func (c *Catalog) Load(markets []Market) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID = make(map[string]*Market, len(markets))
	c.bySymbol = make(map[string]*Market, len(markets))
	for i := range markets {
		m := markets[i]
		if err := m.Validate(); err != nil {
			return fmt.Errorf("catalog load: %w", err)
		}
		if _, ok := c.bySymbol[m.Symbol]; ok {
			continue
		}
		if _, ok := c.byID[m.ID]; ok {
			continue
		}
		c.byID[m.ID] = &m
		c.bySymbol[m.Symbol] = &m
	}
	c.loaded = true
	return nil
}

// LoadCurrencies replaces the currency map.
func (c *Catalog) LoadCurrencies(currencies map[string]Currency) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currency = make(map[string]*Currency, len(currencies))
	for code := range currencies {
		cur := currencies[code]
		c.currency[code] = &cur
	}
}

// Add inserts a single market if neither its id nor symbol is present.
// Used for synthesized records of delisted instruments.
func (c *Catalog) Add(m Market) (*Market, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.byID[m.ID]; ok {
		return existing, nil
	}
	if existing, ok := c.bySymbol[m.Symbol]; ok {
		return existing, nil
	}
	c.byID[m.ID] = &m
	c.bySymbol[m.Symbol] = &m
	return &m, nil
}

// ByID resolves a venue-native instrument id.
func (c *Catalog) ByID(id string) (*Market, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return nil, ErrCatalogNotLoaded
	}
	m, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %q", ErrMarketNotFound, id)
	}
	return m, nil
}

// BySymbol resolves a canonical symbol.
func (c *Catalog) BySymbol(symbol string) (*Market, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return nil, ErrCatalogNotLoaded
	}
	m, ok := c.bySymbol[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: symbol %q", ErrMarketNotFound, symbol)
	}
	return m, nil
}

// Currency resolves a canonical currency code.
func (c *Catalog) Currency(code string) (*Currency, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cur, ok := c.currency[code]
	return cur, ok
}

// Loaded reports whether a load has completed.
func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Markets returns all catalogued markets.
func (c *Catalog) Markets() []Market {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Market, 0, len(c.bySymbol))
	for _, m := range c.bySymbol {
		out = append(out, *m)
	}
	return out
}
