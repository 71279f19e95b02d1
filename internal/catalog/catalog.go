// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog holds the storefront's in-memory catalog snapshot and
// the pure filtering logic applied to it. A Loader fetches the active
// product list from the store under a watchdog deadline, replaces the
// snapshot atomically on success, and derives the category set shown in
// the filter dropdown. Filtering itself never touches the database.
package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"newagro/internal/models"
)

const (
	// DefaultTimeout is the watchdog deadline for a catalog load.
	DefaultTimeout = 12 * time.Second

	// DefaultMaxAge is how long a snapshot is served before a background
	// refresh is kicked off.
	DefaultMaxAge = 1 * time.Minute

	// TimeoutMessage is the user-facing message when the watchdog fires.
	TimeoutMessage = "Tempo excedido ao carregar o catálogo. Tente recarregar a página."

	// CategoryAll is the sentinel value meaning "no category filter".
	CategoryAll = "all"
)

// Lister is the read side of the product store needed by the Loader.
type Lister interface {
	ListActive() ([]models.Product, error)
}

// Snapshot is an immutable view of the loader state handed to consumers.
// Items and Categories always reflect the last successful load; they stay
// visible while a refresh is in flight or after a refresh fails.
type Snapshot struct {
	Items      []models.Product
	Categories []string
	Loaded     bool   // at least one load succeeded
	Loading    bool   // a load is currently in flight
	Err        string // last load error, empty when the last load succeeded
	TimedOut   bool   // the last error came from the watchdog
}

// Loader owns the catalog snapshot. All mutation goes through Load; reads
// go through Snapshot. A generation counter stands in for the browser
// pattern of a "still mounted" flag: a result only commits if no newer
// load (or Stop) has superseded it.
type Loader struct {
	source  Lister
	timeout time.Duration
	maxAge  time.Duration

	mu         sync.Mutex
	gen        uint64
	items      []models.Product
	categories []string
	loaded     bool
	loading    bool
	errMsg     string
	timedOut   bool
	loadedAt   time.Time
}

// NewLoader creates a Loader reading from source. Zero durations fall back
// to the package defaults.
func NewLoader(source Lister, timeout, maxAge time.Duration) *Loader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Loader{source: source, timeout: timeout, maxAge: maxAge}
}

type loadResult struct {
	items []models.Product
	err   error
}

// Load fetches the active item list and replaces the snapshot atomically.
// A watchdog timer races the query: if it fires first the load is reported
// as a timeout and Load returns, but the query is not cancelled — its
// eventual result still commits unless a newer Load or Stop has bumped the
// generation in the meantime. Safe to call repeatedly and concurrently.
func (l *Loader) Load(ctx context.Context) {
	l.mu.Lock()
	l.gen++
	myGen := l.gen
	l.loading = true
	l.errMsg = ""
	l.timedOut = false
	l.mu.Unlock()

	resultCh := make(chan loadResult, 1)
	go func() {
		items, err := l.source.ListActive()
		resultCh <- loadResult{items: items, err: err}
	}()

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		l.commit(myGen, res)
	case <-timer.C:
		l.commitTimeout(myGen)
		// Keep draining: a late result may still commit if nothing newer
		// has started since.
		go func() {
			res := <-resultCh
			l.commit(myGen, res)
		}()
	case <-ctx.Done():
		l.commitStop(myGen)
	}
}

// MaybeRefresh kicks off a background Load when the snapshot is missing or
// older than maxAge and no load is already in flight. Existing items stay
// visible the whole time.
func (l *Loader) MaybeRefresh(ctx context.Context) {
	l.mu.Lock()
	stale := !l.loaded || time.Since(l.loadedAt) > l.maxAge
	busy := l.loading
	l.mu.Unlock()

	if !stale || busy {
		return
	}
	go l.Load(ctx)
}

// Stop invalidates any in-flight load so its result is discarded. Used on
// shutdown; the server-side analog of component unmount.
func (l *Loader) Stop() {
	l.mu.Lock()
	l.gen++
	l.loading = false
	l.mu.Unlock()
}

// Snapshot returns the current catalog view.
func (l *Loader) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	return Snapshot{
		Items:      l.items,
		Categories: l.categories,
		Loaded:     l.loaded,
		Loading:    l.loading,
		Err:        l.errMsg,
		TimedOut:   l.timedOut,
	}
}

// commit applies a load result if its generation is still current.
func (l *Loader) commit(myGen uint64, res loadResult) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.gen != myGen {
		return // superseded by a newer load or by Stop
	}

	l.loading = false
	if res.err != nil {
		l.errMsg = res.err.Error()
		l.timedOut = false
		return
	}

	items := res.items
	if items == nil {
		items = []models.Product{}
	}
	l.items = items
	l.categories = DeriveCategories(items)
	l.loaded = true
	l.loadedAt = time.Now()
	l.errMsg = ""
	l.timedOut = false
}

// commitTimeout marks the load as timed out without touching the items.
func (l *Loader) commitTimeout(myGen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.gen != myGen {
		return
	}
	l.loading = false
	l.errMsg = TimeoutMessage
	l.timedOut = true
}

// commitStop clears the loading flag when the surrounding context is gone.
func (l *Loader) commitStop(myGen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.gen != myGen {
		return
	}
	l.gen++ // forbid the in-flight result from committing later
	l.loading = false
}

// DeriveCategories returns the sorted set of distinct non-empty trimmed
// category values across the given items, compared with pt-BR collation.
func DeriveCategories(items []models.Product) []string {
	seen := make(map[string]struct{})
	var cats []string
	for _, it := range items {
		if it.Category == nil {
			continue
		}
		c := strings.TrimSpace(*it.Category)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		cats = append(cats, c)
	}

	coll := collate.New(language.BrazilianPortuguese)
	sort.Slice(cats, func(i, j int) bool {
		return coll.CompareString(cats[i], cats[j]) < 0
	})
	return cats
}

// Filter applies the search and category predicates to items, preserving
// input order. Pure: no I/O, no mutation of the input slice. The category
// filter is either the CategoryAll sentinel or an exact case-insensitive
// match; the search text is trimmed and matched as a case-insensitive
// substring of the name. Both predicates are ANDed.
func Filter(items []models.Product, search, category string) []models.Product {
	q := strings.ToLower(strings.TrimSpace(search))
	all := category == CategoryAll || category == ""

	out := make([]models.Product, 0, len(items))
	for _, it := range items {
		if !all {
			if it.Category == nil || !strings.EqualFold(*it.Category, category) {
				continue
			}
		}
		if q != "" && !strings.Contains(strings.ToLower(it.Name), q) {
			continue
		}
		out = append(out, it)
	}
	return out
}
