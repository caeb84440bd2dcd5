// Package resolver folds predicate-gated configuration fragments into a
// single resolved document and refines it with per-asset override tables.
package resolver

import (
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"

	"github.com/ByLCY/textboxer/document"
	"github.com/ByLCY/textboxer/predicate"
	"github.com/ByLCY/textboxer/store"
)

// Fragment is a loaded, non-preload fragment awaiting resolution.
type Fragment struct {
	Source    string
	Predicate *predicate.Expression
	Sort      int
	Doc       document.Document
}

// Buckets groups fragments by sort value. Within a bucket, fragments keep
// their discovery order.
type Buckets map[int][]Fragment

// Keys returns the bucket sort values in ascending order.
func (b Buckets) Keys() []int {
	keys := make([]int, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Loaded is the result of Load.
type Loaded struct {
	Buckets Buckets
	// Preload is the merge of every "parse" fragment: style metadata such as
	// the argument schema and default style. It is never part of a resolved layout.
	Preload document.Document
}

// Override is one predicate-gated entry of an override table.
type Override struct {
	Name      string
	Predicate *predicate.Expression
	Fragment  document.Document
}

// Resolver carries the logger used to trace fold decisions. The zero value is
// ready to use and logs nothing.
type Resolver struct {
	Logger *slog.Logger
}

func (r *Resolver) logger() *slog.Logger {
	if r == nil || r.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Logger
}

// Load sorts fragments into buckets, routing "parse" fragments to the preload document.
func Load(entries []store.Entry) (*Loaded, error) {
	return (*Resolver)(nil).Load(entries)
}

// Load sorts fragments into buckets, routing "parse" fragments to the preload document.
func (r *Resolver) Load(entries []store.Entry) (*Loaded, error) {
	log := r.logger()
	out := &Loaded{Buckets: Buckets{}, Preload: document.Document{}}
	for _, e := range entries {
		raw, err := e.Doc.String(document.KeyPredicate)
		if err != nil {
			return nil, fmt.Errorf("片段 %s: %w", e.Name, err)
		}
		expr, err := predicate.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("片段 %s: %w", e.Name, err)
		}
		if expr.IsParse() {
			log.Debug("loading preload fragment", "source", e.Name)
			out.Preload = document.Merge(out.Preload, e.Doc)
			continue
		}
		sortValue, err := e.Doc.Int(document.KeySort)
		if err != nil {
			return nil, fmt.Errorf("片段 %s: %w", e.Name, err)
		}
		log.Debug("loading fragment", "source", e.Name, "sort", sortValue, "predicate", raw)
		out.Buckets[sortValue] = append(out.Buckets[sortValue], Fragment{
			Source:    e.Name,
			Predicate: expr,
			Sort:      sortValue,
			Doc:       e.Doc,
		})
	}
	delete(out.Preload, document.KeyPredicate)
	delete(out.Preload, document.KeySort)
	return out, nil
}

// Resolve folds matching fragments in ascending sort order.
func Resolve(state predicate.State, buckets Buckets) document.Document {
	return (*Resolver)(nil).Resolve(state, buckets)
}

// Resolve folds every fragment whose predicate holds under state into one
// document, lowest sort value first, then strips the bookkeeping keys.
func (r *Resolver) Resolve(state predicate.State, buckets Buckets) document.Document {
	log := r.logger()
	out := document.Document{}
	for _, key := range buckets.Keys() {
		for _, f := range buckets[key] {
			if !f.Predicate.Eval(state) {
				log.Debug("skip fragment", "source", f.Source, "sort", key)
				continue
			}
			log.Debug("fold fragment", "source", f.Source, "sort", key)
			out = document.Merge(out, f.Doc)
		}
	}
	delete(out, document.KeyPredicate)
	delete(out, document.KeySort)
	return out
}

// ParseOverrides converts override table entries, in table order.
func ParseOverrides(entries []store.Entry) ([]Override, error) {
	out := make([]Override, 0, len(entries))
	for _, e := range entries {
		raw, err := e.Doc.String(document.KeyPredicate)
		if err != nil {
			return nil, fmt.Errorf("覆盖项 %s: %w", e.Name, document.Prefix(err, e.Name))
		}
		expr, err := predicate.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("覆盖项 %s: %w", e.Name, err)
		}
		out = append(out, Override{Name: e.Name, Predicate: expr, Fragment: e.Doc.Without(document.KeyPredicate)})
	}
	return out, nil
}

// ApplyOverrides folds matching overrides into resolved, in table order.
func ApplyOverrides(state predicate.State, resolved document.Document, table []Override) document.Document {
	return (*Resolver)(nil).ApplyOverrides(state, resolved, table)
}

// ApplyOverrides folds matching overrides into resolved, in table order.
func (r *Resolver) ApplyOverrides(state predicate.State, resolved document.Document, table []Override) document.Document {
	log := r.logger()
	out := resolved
	for _, o := range table {
		if !o.Predicate.Eval(state) {
			log.Debug("skip override", "name", o.Name)
			continue
		}
		log.Debug("apply override", "name", o.Name)
		out = document.Merge(out, o.Fragment)
	}
	return out
}

// ApplyAssetOverrides looks up the override table that dir's override index
// registers for rel (an asset path relative to dir) and applies it. A
// directory without an index, or an asset the index does not list, leaves
// resolved unchanged.
func (r *Resolver) ApplyAssetOverrides(state predicate.State, resolved document.Document, s store.Store, dir, rel string) (document.Document, error) {
	index, ok, err := s.OpenOverrideIndex(dir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return resolved, nil
	}
	tableFile, ok := index[rel]
	if !ok {
		return resolved, nil
	}
	r.logger().Debug("loading override table", "dir", dir, "asset", rel, "table", tableFile)
	entries, err := s.OpenOverrideTable(path.Join(dir, tableFile))
	if err != nil {
		return nil, err
	}
	table, err := ParseOverrides(entries)
	if err != nil {
		return nil, err
	}
	return r.ApplyOverrides(state, resolved, table), nil
}
