// Package catalog loads the material price list and turns catalog
// references and plan analysis candidates into quotation material lines.
package catalog

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"climas_backend/internal/pricing"
	"climas_backend/platform/apperr"

	"gopkg.in/yaml.v3"
)

// Entry is one priced catalog item.
type Entry struct {
	Code           string `yaml:"code" json:"code"`
	Description    string `yaml:"description" json:"description"`
	Category       string `yaml:"category" json:"category,omitempty"`
	Unit           string `yaml:"unit" json:"unit,omitempty"`
	UnitPriceCents int64  `yaml:"unit_price_cents" json:"unitPriceCents"`
}

type file struct {
	Currency string  `yaml:"currency"`
	Entries  []Entry `yaml:"entries"`
}

// Catalog is an immutable, code-indexed price list.
type Catalog struct {
	currency string
	entries  []Entry
	byCode   map[string]int
}

// LineRef selects a catalog entry and a quantity.
type LineRef struct {
	Code     string
	Quantity int64
}

// Empty returns a catalog without entries.
func Empty() *Catalog {
	return &Catalog{byCode: map[string]int{}}
}

// Load reads a YAML catalog from path. An empty path yields an empty catalog.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Empty(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a YAML catalog. Codes must be unique and prices non-negative.
func Parse(r io.Reader) (*Catalog, error) {
	var doc file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		currency: strings.ToUpper(strings.TrimSpace(doc.Currency)),
		entries:  make([]Entry, 0, len(doc.Entries)),
		byCode:   make(map[string]int, len(doc.Entries)),
	}
	for i, e := range doc.Entries {
		e.Code = normalizeCode(e.Code)
		e.Description = strings.TrimSpace(e.Description)
		switch {
		case e.Code == "":
			return nil, fmt.Errorf("catalog entry %d: code is required", i)
		case e.Description == "":
			return nil, fmt.Errorf("catalog entry %s: description is required", e.Code)
		case e.UnitPriceCents < 0:
			return nil, fmt.Errorf("catalog entry %s: negative price", e.Code)
		}
		if _, dup := c.byCode[e.Code]; dup {
			return nil, fmt.Errorf("catalog entry %s: duplicate code", e.Code)
		}
		c.byCode[e.Code] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// Currency returns the ISO currency code of the prices, if declared.
func (c *Catalog) Currency() string {
	return c.currency
}

// Entries returns every entry sorted by category then code.
func (c *Catalog) Entries() []Entry {
	out := append([]Entry(nil), c.entries...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// Lookup returns the entry with the given code.
func (c *Catalog) Lookup(code string) (Entry, bool) {
	i, ok := c.byCode[normalizeCode(code)]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Resolve converts references into material lines priced from the catalog.
// Every unknown code and bad quantity is reported at once.
func (c *Catalog) Resolve(refs []LineRef) ([]pricing.Material, error) {
	fields := apperr.FieldErrors{}
	lines := make([]pricing.Material, 0, len(refs))
	for i, ref := range refs {
		entry, ok := c.Lookup(ref.Code)
		if !ok {
			fields.Add(fmt.Sprintf("catalog[%d].code", i), "unknown catalog code")
			continue
		}
		if ref.Quantity < 1 {
			fields.Add(fmt.Sprintf("catalog[%d].quantity", i), "must be at least 1")
			continue
		}
		lines = append(lines, pricing.Material{
			Description:    entry.Description,
			Quantity:       ref.Quantity,
			UnitPriceCents: entry.UnitPriceCents,
			Source:         pricing.SourceCatalog,
		})
	}
	if err := fields.Err("invalid catalog lines"); err != nil {
		return nil, err
	}
	return lines, nil
}

// PlanAnalysisLines tags externally analysed candidates with their source.
func PlanAnalysisLines(candidates []pricing.Material) []pricing.Material {
	out := make([]pricing.Material, len(candidates))
	for i, m := range candidates {
		m.Description = strings.TrimSpace(m.Description)
		m.Source = pricing.SourcePlanAnalysis
		out[i] = m
	}
	return out
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
