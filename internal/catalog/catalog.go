// Package catalog is the in-process product catalog (§6.3): a read-mostly
// index over a JSON product file, supporting exact and substring UPC
// lookup, name search, and full atomic reload.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// Product is one entry in the catalog.
type Product struct {
	Name         string `json:"name"`
	UPC          string `json:"upc"`
	MainCategory string `json:"-"`
	Subcategory  string `json:"-"`
}

// index is the immutable snapshot swapped in on every Load/Reload.
type index struct {
	products   []Product
	byUPC      map[string]Product
	byName     map[string]Product
	categories map[string][]string // main category -> subcategory names, sorted
	subcats    map[string]map[string][]Product
}

// Catalog is a thread-safe, atomically-reloadable product index.
type Catalog struct {
	path string

	mu  sync.RWMutex
	idx *index
}

// New builds a Catalog over the JSON file at path and loads it immediately.
func New(path string) (*Catalog, error) {
	c := &Catalog{path: path}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// rawProduct is one entry of the nested JSON shape: {main_category:
// {subcategory: [{"name","upc"}, ...]}}. The category levels decode into Go
// maps, which do not keep the file's key order, so Reload walks main
// categories and subcategories in sorted name order; product order within
// each subcategory follows the file. That walk order is the catalog order
// used for ambiguity tie-breaking (below) and by Search.
type rawProduct struct {
	Name interface{} `json:"name"`
	UPC  interface{} `json:"upc"`
}

// Reload re-reads the products file and atomically replaces the live index.
// A failed reload leaves the previous index in place.
func (c *Catalog) Reload() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("catalog: read products file: %w", err)
	}

	var raw map[string]map[string][]rawProduct
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("catalog: invalid JSON: %w", err)
	}

	idx := &index{
		byUPC:      make(map[string]Product),
		byName:     make(map[string]Product),
		categories: make(map[string][]string),
		subcats:    make(map[string]map[string][]Product),
	}

	mainCats := make([]string, 0, len(raw))
	for mainCat := range raw {
		mainCats = append(mainCats, mainCat)
	}
	sort.Strings(mainCats)

	for _, mainCat := range mainCats {
		subcats := raw[mainCat]
		idx.subcats[mainCat] = make(map[string][]Product)
		subNames := make([]string, 0, len(subcats))
		for subCat := range subcats {
			subNames = append(subNames, subCat)
		}
		sort.Strings(subNames)
		for _, subCat := range subNames {
			items := subcats[subCat]
			idx.categories[mainCat] = append(idx.categories[mainCat], subCat)
			var bucket []Product
			for _, item := range items {
				name, _ := item.Name.(string)
				upc := fmt.Sprintf("%v", item.UPC)
				if name == "" || item.UPC == nil {
					continue
				}
				p := Product{Name: name, UPC: upc, MainCategory: mainCat, Subcategory: subCat}
				idx.products = append(idx.products, p)
				bucket = append(bucket, p)
				idx.byUPC[upc] = p
				idx.byName[strings.ToLower(name)] = p
			}
			idx.subcats[mainCat][subCat] = bucket
		}
	}

	c.mu.Lock()
	c.idx = idx
	c.mu.Unlock()
	return nil
}

func (c *Catalog) snapshot() *index {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.idx
}

// FindByUPC returns the product registered under the exact UPC.
func (c *Catalog) FindByUPC(upc string) (Product, bool) {
	idx := c.snapshot()
	p, ok := idx.byUPC[upc]
	return p, ok
}

// FindByName returns the product with the exact name, case-insensitive.
func (c *Catalog) FindByName(name string) (Product, bool) {
	idx := c.snapshot()
	p, ok := idx.byName[strings.ToLower(name)]
	return p, ok
}

// FindByScannedUPC tries an exact match first, then substring (wildcard)
// matching: a stored UPC matches if it occurs anywhere within scannedUPC.
// When multiple stored UPCs match, the longest one wins; ties break on
// catalog order (main category name, then subcategory name, then position
// within the subcategory in the file).
func (c *Catalog) FindByScannedUPC(scannedUPC string) (Product, bool) {
	idx := c.snapshot()
	if p, ok := idx.byUPC[scannedUPC]; ok {
		return p, true
	}

	var best Product
	found := false
	for _, p := range idx.products {
		if p.UPC == "" || !strings.Contains(scannedUPC, p.UPC) {
			continue
		}
		if !found || len(p.UPC) > len(best.UPC) {
			best = p
			found = true
		}
	}
	return best, found
}

// Search returns up to limit products whose name contains query
// (case-insensitive), in catalog order.
func (c *Catalog) Search(query string, limit int) []Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	idx := c.snapshot()

	var results []Product
	for _, p := range idx.products {
		if strings.Contains(strings.ToLower(p.Name), query) {
			results = append(results, p)
			if limit > 0 && len(results) >= limit {
				break
			}
		}
	}
	return results
}

// FindByCategory filters products by main category and, optionally,
// subcategory. An empty mainCategory returns every product.
func (c *Catalog) FindByCategory(mainCategory, subcategory string) []Product {
	idx := c.snapshot()
	if mainCategory == "" {
		return append([]Product(nil), idx.products...)
	}
	subs, ok := idx.subcats[mainCategory]
	if !ok {
		return nil
	}
	if subcategory != "" {
		return append([]Product(nil), subs[subcategory]...)
	}

	var results []Product
	for _, names := range idx.categories[mainCategory] {
		results = append(results, subs[names]...)
	}
	return results
}

// MatchType describes how a query in FindMultiple matched a product.
type MatchType string

const (
	MatchFull    MatchType = "full"
	MatchPartial MatchType = "partial"
)

// Match pairs a resolved product with how the query matched it.
type Match struct {
	Product   Product
	MatchType MatchType
}

// FindMultiple resolves a batch of free-form queries (UPCs or names) against
// products in the given category filter, trying exact UPC, then exact name,
// then substring name match (first match wins), skipping already-seen UPCs.
func (c *Catalog) FindMultiple(queries []string, mainCategory, subcategory string) []Match {
	candidates := c.FindByCategory(mainCategory, subcategory)
	if len(candidates) == 0 {
		return nil
	}
	inSet := make(map[string]bool, len(candidates))
	for _, p := range candidates {
		inSet[p.UPC] = true
	}

	var results []Match
	seen := make(map[string]bool)

	for _, raw := range queries {
		q := strings.TrimSpace(raw)
		if q == "" {
			continue
		}

		if p, ok := c.FindByUPC(q); ok && inSet[p.UPC] && !seen[p.UPC] {
			results = append(results, Match{Product: p, MatchType: MatchFull})
			seen[p.UPC] = true
			continue
		}

		if p, ok := c.FindByName(q); ok && inSet[p.UPC] && !seen[p.UPC] {
			results = append(results, Match{Product: p, MatchType: MatchFull})
			seen[p.UPC] = true
			continue
		}

		lowerQ := strings.ToLower(q)
		for _, p := range candidates {
			if seen[p.UPC] {
				continue
			}
			lowerName := strings.ToLower(p.Name)
			if strings.Contains(lowerName, lowerQ) || strings.Contains(lowerQ, lowerName) {
				results = append(results, Match{Product: p, MatchType: MatchPartial})
				seen[p.UPC] = true
				break
			}
		}
	}
	return results
}

// Categories returns every main category and its subcategory names.
func (c *Catalog) Categories() map[string][]string {
	idx := c.snapshot()
	out := make(map[string][]string, len(idx.categories))
	for k, v := range idx.categories {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Stats summarizes catalog size, grouped by category.
type Stats struct {
	TotalProducts  int                      `json:"total_products"`
	MainCategories int                      `json:"main_categories"`
	Categories     map[string]CategoryStats `json:"categories"`
}

// CategoryStats summarizes one main category.
type CategoryStats struct {
	Subcategories int `json:"subcategories"`
	Products      int `json:"products"`
}

// Stats computes catalog-wide counts.
func (c *Catalog) Stats() Stats {
	idx := c.snapshot()
	stats := Stats{
		TotalProducts:  len(idx.products),
		MainCategories: len(idx.categories),
		Categories:     make(map[string]CategoryStats, len(idx.categories)),
	}
	for mainCat, subNames := range idx.categories {
		products := 0
		for _, sub := range subNames {
			products += len(idx.subcats[mainCat][sub])
		}
		stats.Categories[mainCat] = CategoryStats{Subcategories: len(subNames), Products: products}
	}
	return stats
}
