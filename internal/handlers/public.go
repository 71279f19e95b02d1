// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"newagro/internal/cache"
	"newagro/internal/catalog"
	"newagro/internal/middleware"
	"newagro/internal/models"
	"newagro/internal/render"
	"newagro/internal/store"
)

// relatedLimit caps the related-items strip on the detail page.
const relatedLimit = 6

// Public groups handlers for the public storefront. The catalog pages read
// from the in-memory snapshot held by the Loader; only the detail page
// queries the database directly. Unfiltered anonymous pages are served
// from the L2 Valkey page cache when possible.
type Public struct {
	renderer  *render.Renderer
	loader    *catalog.Loader
	products  *store.ProductStore
	pageCache *cache.PageCache
}

// NewPublic creates a new Public handler group.
func NewPublic(renderer *render.Renderer, loader *catalog.Loader, products *store.ProductStore, pageCache *cache.PageCache) *Public {
	return &Public{
		renderer:  renderer,
		loader:    loader,
		products:  products,
		pageCache: pageCache,
	}
}

// cacheable reports whether this request may be served from / stored in
// the page cache: only anonymous requests, since the layout renders the
// session in the navigation.
func cacheable(r *http.Request) bool {
	return middleware.SessionFromCtx(r.Context()) == nil
}

// Home renders the catalog page with optional search (?q=) and category
// (?categoria=) filters. Filtering happens in memory against the snapshot;
// a filtered view never touches the page cache.
func (p *Public) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	search := r.URL.Query().Get("q")
	category := r.URL.Query().Get("categoria")
	if category == "" {
		category = catalog.CategoryAll
	}
	filtered := search != "" || category != catalog.CategoryAll

	if !filtered && cacheable(r) {
		if cached, ok := p.pageCache.Get(ctx, cache.HomeKey()); ok {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(cached)
			return
		}
	}

	snap := p.loader.Snapshot()
	if !snap.Loaded && !snap.Loading {
		// Cold start or previous failure: load synchronously, bounded by
		// the watchdog.
		p.loader.Load(ctx)
		snap = p.loader.Snapshot()
	} else {
		p.loader.MaybeRefresh(ctx)
	}

	data := &render.PageData{
		Title:   "Catálogo",
		Section: "home",
		Data: map[string]any{
			"Search":     search,
			"Category":   category,
			"Categories": snap.Categories,
			"Filtered":   filtered,
			"Refreshing": snap.Loaded && snap.Loading,
		},
	}

	switch {
	case !snap.Loaded && snap.Err != "":
		data.Data["ShowError"] = true
		data.Data["Error"] = snap.Err
	case !snap.Loaded:
		data.Data["ShowLoading"] = true
	default:
		data.Data["Items"] = catalog.Filter(snap.Items, search, category)
		// A failed refresh keeps the last good items; tell the visitor
		// the list may be stale instead of hiding the error.
		if snap.Err != "" {
			data.Data["StaleError"] = snap.Err
		}
	}

	html, err := p.renderer.Bytes(r, "home", data)
	if err != nil {
		slog.Error("render home failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Only a clean unfiltered render is worth caching.
	if !filtered && cacheable(r) && snap.Loaded && !snap.Loading && snap.Err == "" {
		p.pageCache.Set(ctx, cache.HomeKey(), html)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

// Services renders the services listing, a filtered view of the same
// snapshot the home page uses.
func (p *Public) Services(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if cacheable(r) {
		if cached, ok := p.pageCache.Get(ctx, cache.ServicesKey()); ok {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(cached)
			return
		}
	}

	snap := p.loader.Snapshot()
	if !snap.Loaded && !snap.Loading {
		p.loader.Load(ctx)
		snap = p.loader.Snapshot()
	} else {
		p.loader.MaybeRefresh(ctx)
	}

	var services []models.Product
	for _, it := range snap.Items {
		if it.ItemType == models.ItemTypeService {
			services = append(services, it)
		}
	}

	data := &render.PageData{
		Title:   "Serviços",
		Section: "services",
		Data:    map[string]any{"Items": services},
	}

	html, err := p.renderer.Bytes(r, "services", data)
	if err != nil {
		slog.Error("render services failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if cacheable(r) && snap.Loaded && !snap.Loading {
		p.pageCache.Set(ctx, cache.ServicesKey(), html)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

// ProductDetail renders a single catalog item. A non-numeric identifier
// fails fast without touching the database. Zero rows renders the
// not-found page; a query error renders an error, the two are never
// conflated. The related strip is an independent failure domain: if it
// errors, the page still renders without it.
func (p *Public) ProductDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idParam := chi.URLParam(r, "id")

	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		p.notFound(w, r, "Produto inválido")
		return
	}

	if cacheable(r) {
		if cached, ok := p.pageCache.Get(ctx, cache.ProductKey(id)); ok {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(cached)
			return
		}
	}

	product, err := p.products.FindByID(id)
	if err != nil {
		slog.Error("find product failed", "error", err, "id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if product == nil || !product.IsActive {
		p.notFound(w, r, "Produto não encontrado")
		return
	}

	related, err := p.products.ListRelated(id, relatedLimit)
	if err != nil {
		slog.Warn("list related failed", "error", err, "id", id)
		related = nil
	}

	data := &render.PageData{
		Title:   product.Name,
		Section: "home",
		Data: map[string]any{
			"Product": product,
			"Related": related,
		},
	}

	html, err := p.renderer.Bytes(r, "product_detail", data)
	if err != nil {
		slog.Error("render product detail failed", "error", err, "id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if cacheable(r) {
		p.pageCache.Set(ctx, cache.ProductKey(id), html)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

// NotFound renders the 404 page for unmatched routes.
func (p *Public) NotFound(w http.ResponseWriter, r *http.Request) {
	p.notFound(w, r, "")
}

func (p *Public) notFound(w http.ResponseWriter, r *http.Request, message string) {
	html, err := p.renderer.Bytes(r, "not_found", &render.PageData{
		Title: "Página não encontrada",
		Data:  map[string]any{"Message": message},
	})
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write(html)
}
