// Package pricelist holds the price catalog as immutable, versioned snapshots
// reloaded from a YAML file.
package pricelist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"tf2automatic/internal/currency"
	"tf2automatic/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Snapshot is a read-only view of the catalog. Evaluations and constructions take
// one snapshot up front so concurrent reloads are never observed mid-way.
type Snapshot struct {
	Version  int64
	LoadedAt time.Time

	entries map[string]Entry
	keys    currency.KeyPrices
}

// Get returns the entry for sku. With onlyEnabled, disabled entries are hidden.
func (s Snapshot) Get(sku string, onlyEnabled bool) (Entry, bool) {
	e, ok := s.entries[sku]
	if !ok || (onlyEnabled && !e.Enabled) {
		return Entry{}, false
	}
	return e, true
}

func (s Snapshot) KeyPrices() currency.KeyPrices {
	return s.keys
}

// Entries returns every entry ordered by sku.
func (s Snapshot) Entries() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

func (s Snapshot) Len() int {
	return len(s.entries)
}

// NewSnapshot builds a snapshot from entries. Missing key prices fall back to the
// key entry's buy/sell metal.
func NewSnapshot(entries []Entry, keys currency.KeyPrices) Snapshot {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.SKU] = e
	}
	if keys.Buy.IsZero() && keys.Sell.IsZero() {
		if k, ok := m[currency.KeySKU]; ok {
			keys = currency.KeyPrices{Buy: k.Buy, Sell: k.Sell}
		}
	}
	return Snapshot{LoadedAt: time.Now(), entries: m, keys: keys}
}

// ChangeListener is called with the new snapshot after every reload.
type ChangeListener func(Snapshot)

// Catalog owns the current snapshot and optionally watches its file.
type Catalog struct {
	path string
	v    *viper.Viper

	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []ChangeListener
}

// NewCatalog loads the pricelist at path and, when watch is set, reloads it on
// every file change.
func NewCatalog(path string, watch bool) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("pricelist requires path")
	}
	c := &Catalog{path: path}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	if watch {
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read pricelist failed: %w", err)
		}
		v.OnConfigChange(func(evt fsnotify.Event) {
			if err := c.Reload(); err != nil {
				logger.Errorf("pricelist reload failed (%s): %v", evt.Name, err)
			}
		})
		v.WatchConfig()
		c.v = v
	}
	return c, nil
}

// NewStaticCatalog serves a fixed snapshot.
func NewStaticCatalog(snap Snapshot) *Catalog {
	snap.Version = 1
	return &Catalog{snapshot: snap}
}

func (c *Catalog) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Replace installs snap as the next version and notifies listeners.
func (c *Catalog) Replace(snap Snapshot) {
	c.mu.Lock()
	snap.Version = c.snapshot.Version + 1
	if snap.LoadedAt.IsZero() {
		snap.LoadedAt = time.Now()
	}
	c.snapshot = snap
	listeners := append([]ChangeListener(nil), c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		go func(cb ChangeListener) {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("pricelist listener panic: %v", r)
				}
			}()
			cb(snap)
		}(fn)
	}
}

// Subscribe registers fn for future reloads.
func (c *Catalog) Subscribe(fn ChangeListener) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Reload re-reads the pricelist file.
func (c *Catalog) Reload() error {
	entries, keys, err := readPricelistFile(c.path)
	if err != nil {
		return err
	}
	c.Replace(NewSnapshot(entries, keys))
	logger.Infof("Pricelist loaded %d items from %s", len(entries), filepath.Base(c.path))
	return nil
}

type fileMoney struct {
	Keys  int     `yaml:"keys"`
	Metal float64 `yaml:"metal"`
}

func (m fileMoney) money() currency.Money {
	return currency.NewMoney(m.Keys, decimal.NewFromFloat(m.Metal))
}

type fileEntry struct {
	SKU     string    `yaml:"sku"`
	Name    string    `yaml:"name"`
	Enabled *bool     `yaml:"enabled"`
	Intent  any       `yaml:"intent"`
	Buy     fileMoney `yaml:"buy"`
	Sell    fileMoney `yaml:"sell"`
	Min     int       `yaml:"min"`
	Max     *int      `yaml:"max"`
}

type fileKeyPrices struct {
	Buy  fileMoney `yaml:"buy"`
	Sell fileMoney `yaml:"sell"`
}

type fileConfig struct {
	KeyPrices *fileKeyPrices `yaml:"key_prices"`
	Items     []fileEntry    `yaml:"items"`
}

func readPricelistFile(path string) ([]Entry, currency.KeyPrices, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, currency.KeyPrices{}, fmt.Errorf("read pricelist failed: %w", err)
	}
	if err := validateDocument(raw); err != nil {
		return nil, currency.KeyPrices{}, fmt.Errorf("pricelist schema: %w", err)
	}
	var cfg fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, currency.KeyPrices{}, fmt.Errorf("parse pricelist failed: %w", err)
	}
	entries := make([]Entry, 0, len(cfg.Items))
	seen := make(map[string]bool, len(cfg.Items))
	for idx, item := range cfg.Items {
		e, err := item.entry()
		if err != nil {
			return nil, currency.KeyPrices{}, fmt.Errorf("pricelist item %d: %w", idx, err)
		}
		if seen[e.SKU] {
			return nil, currency.KeyPrices{}, fmt.Errorf("pricelist item %d: duplicate sku %s", idx, e.SKU)
		}
		seen[e.SKU] = true
		entries = append(entries, e)
	}
	var keys currency.KeyPrices
	if cfg.KeyPrices != nil {
		keys = currency.KeyPrices{Buy: cfg.KeyPrices.Buy.money(), Sell: cfg.KeyPrices.Sell.money()}
	}
	return entries, keys, nil
}

func (f fileEntry) entry() (Entry, error) {
	intent, err := ParseIntent(f.Intent)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{
		SKU:     strings.TrimSpace(f.SKU),
		Name:    strings.TrimSpace(f.Name),
		Enabled: true,
		Intent:  intent,
		Buy:     f.Buy.money(),
		Sell:    f.Sell.money(),
		Min:     f.Min,
		Max:     -1,
	}
	if f.Enabled != nil {
		e.Enabled = *f.Enabled
	}
	if f.Max != nil {
		e.Max = *f.Max
	}
	if e.Name == "" {
		e.Name = e.SKU
	}
	return e, nil
}

const documentSchema = `{
  "type": "object",
  "properties": {
    "key_prices": {
      "type": "object",
      "properties": {
        "buy": {"$ref": "#/definitions/money"},
        "sell": {"$ref": "#/definitions/money"}
      }
    },
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["sku"],
        "properties": {
          "sku": {"type": "string", "pattern": "^[0-9]+;[0-9]+(;.+)?$"},
          "name": {"type": "string"},
          "enabled": {"type": "boolean"},
          "buy": {"$ref": "#/definitions/money"},
          "sell": {"$ref": "#/definitions/money"},
          "min": {"type": "integer", "minimum": 0},
          "max": {"type": "integer", "minimum": -1}
        }
      }
    }
  },
  "definitions": {
    "money": {
      "type": "object",
      "properties": {
        "keys": {"type": "integer", "minimum": 0},
        "metal": {"type": "number", "minimum": 0}
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	schemaCompiled *jsonschema.Schema
	schemaErr      error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("pricelist.json", strings.NewReader(documentSchema)); err != nil {
			schemaErr = err
			return
		}
		schemaCompiled, schemaErr = compiler.Compile("pricelist.json")
	})
	return schemaCompiled, schemaErr
}

// validateDocument checks the YAML document against the pricelist JSON schema.
// YAML is round-tripped through JSON so numbers reach the validator as json.Number.
func validateDocument(raw []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	buf, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.UseNumber()
	var normalized any
	if err := dec.Decode(&normalized); err != nil {
		return err
	}
	return schema.Validate(normalized)
}
