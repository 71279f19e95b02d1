// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"newagro/internal/cache"
	"newagro/internal/catalog"
	"newagro/internal/models"
	"newagro/internal/render"
	"newagro/internal/store"
)

// Admin groups the catalog management handlers. Every mutation ends the
// same way: the in-memory snapshot is reloaded and the page cache is
// flushed, so the storefront never serves stale data for long.
type Admin struct {
	renderer  *render.Renderer
	products  *store.ProductStore
	loader    *catalog.Loader
	pageCache *cache.PageCache
	storage   ObjectStorage
}

// NewAdmin creates a new Admin handler group. storage may be nil when S3
// is not configured; image endpoints then report it missing.
func NewAdmin(renderer *render.Renderer, products *store.ProductStore, loader *catalog.Loader, pageCache *cache.PageCache, storage ObjectStorage) *Admin {
	return &Admin{
		renderer:  renderer,
		products:  products,
		loader:    loader,
		pageCache: pageCache,
		storage:   storage,
	}
}

// refresh reloads the catalog snapshot in the background and flushes the
// page cache. Called after every successful mutation.
func (a *Admin) refresh(ctx context.Context) {
	go a.loader.Load(context.Background())
	a.pageCache.InvalidateAll(ctx)
}

// ProductsList renders the admin catalog table with an optional
// name-or-category substring filter (?q=).
func (a *Admin) ProductsList(w http.ResponseWriter, r *http.Request) {
	items, err := a.products.ListAll()
	if err != nil {
		slog.Error("admin list products failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query != "" {
		items = filterAdminList(items, query)
	}

	a.renderer.Page(w, r, "admin_products", &render.PageData{
		Title:   "Produtos e serviços",
		Section: "admin",
		Data: map[string]any{
			"Items": items,
			"Query": query,
		},
	})
}

// filterAdminList keeps items whose name or category contains the query,
// case-insensitively.
func filterAdminList(items []models.Product, query string) []models.Product {
	q := strings.ToLower(query)
	out := make([]models.Product, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Name), q) {
			out = append(out, it)
			continue
		}
		if it.Category != nil && strings.Contains(strings.ToLower(*it.Category), q) {
			out = append(out, it)
		}
	}
	return out
}

// NewForm renders the editor for a new item.
func (a *Admin) NewForm(w http.ResponseWriter, r *http.Request) {
	draft := &models.Product{ItemType: models.ItemTypeProduct, IsActive: true}
	a.renderForm(w, r, draft, "")
}

// Create validates the form and inserts a new item. On success the editor
// reopens on the stored row so images can be attached.
func (a *Admin) Create(w http.ResponseWriter, r *http.Request) {
	p, errMsg := parseProductForm(r)
	if errMsg != "" {
		a.renderForm(w, r, echoDraft(r, 0), errMsg)
		return
	}

	id, err := a.products.Create(p)
	if err != nil {
		slog.Error("create product failed", "error", err)
		a.renderForm(w, r, echoDraft(r, 0), "Não foi possível salvar o item. Tente novamente.")
		return
	}

	a.refresh(r.Context())
	http.Redirect(w, r, "/admin/produtos/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

// EditForm renders the editor for an existing item.
func (a *Admin) EditForm(w http.ResponseWriter, r *http.Request) {
	p, ok := a.findProduct(w, r)
	if !ok {
		return
	}
	a.renderForm(w, r, p, "")
}

// Update validates the form and replaces all editable fields of an
// existing item. The image list is managed by the image endpoints and is
// not touched here.
func (a *Admin) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := a.findProduct(w, r)
	if !ok {
		return
	}

	p, errMsg := parseProductForm(r)
	if errMsg != "" {
		a.renderForm(w, r, echoDraft(r, existing.ID), errMsg)
		return
	}

	p.ID = existing.ID
	p.Images = existing.Images
	if err := a.products.Update(p); err != nil {
		slog.Error("update product failed", "error", err, "id", p.ID)
		a.renderForm(w, r, echoDraft(r, existing.ID), "Não foi possível salvar o item. Tente novamente.")
		return
	}

	a.refresh(r.Context())
	http.Redirect(w, r, "/admin/produtos/"+strconv.FormatInt(p.ID, 10), http.StatusSeeOther)
}

// Delete removes an item. The browser asks for confirmation before this
// request is made; stored images are intentionally left in the bucket.
func (a *Admin) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := a.findProduct(w, r)
	if !ok {
		return
	}

	if err := a.products.Delete(existing.ID); err != nil {
		slog.Error("delete product failed", "error", err, "id", existing.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.refresh(r.Context())
	http.Redirect(w, r, "/admin/produtos", http.StatusSeeOther)
}

// findProduct resolves the {id} route parameter to a stored product.
// Writes the response and returns ok=false when the id is malformed or
// the row is gone.
func (a *Admin) findProduct(w http.ResponseWriter, r *http.Request) (*models.Product, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/admin/produtos", http.StatusSeeOther)
		return nil, false
	}

	p, err := a.products.FindByID(id)
	if err != nil {
		slog.Error("find product failed", "error", err, "id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if p == nil {
		http.Redirect(w, r, "/admin/produtos", http.StatusSeeOther)
		return nil, false
	}
	return p, true
}

// renderForm renders the product editor with the display texts for the
// lenient numeric fields.
func (a *Admin) renderForm(w http.ResponseWriter, r *http.Request, p *models.Product, errMsg string) {
	title := "Novo item"
	if p.ID != 0 {
		title = "Editar item"
	}

	priceText := ""
	if p.Price != nil {
		priceText = strconv.FormatFloat(*p.Price, 'f', 2, 64)
	}
	stockText := ""
	if p.Stock != nil {
		stockText = strconv.Itoa(*p.Stock)
	}
	specsText := string(p.Specifications)

	// A rejected submission echoes the raw texts back so nothing the
	// user typed is lost.
	if errMsg != "" {
		priceText = r.FormValue("price")
		stockText = r.FormValue("stock")
		specsText = r.FormValue("specifications")
	}

	a.renderer.Page(w, r, "admin_product_form", &render.PageData{
		Title:   title,
		Section: "admin",
		Data: map[string]any{
			"Product":            p,
			"PriceText":          priceText,
			"StockText":          stockText,
			"SpecificationsText": specsText,
			"Error":              errMsg,
		},
	})
}

// echoDraft rebuilds a product from the raw form values so a rejected
// submission redisplays what the user typed. No validation here; the
// error message next to the form explains what to fix.
func echoDraft(r *http.Request, id int64) *models.Product {
	p := &models.Product{ID: id}
	p.Name = strings.TrimSpace(r.FormValue("name"))
	if desc := strings.TrimSpace(r.FormValue("description")); desc != "" {
		p.Description = &desc
	}
	if cat := strings.TrimSpace(r.FormValue("category")); cat != "" {
		p.Category = &cat
	}
	p.ItemType = models.ItemTypeProduct
	if r.FormValue("item_type") == string(models.ItemTypeService) {
		p.ItemType = models.ItemTypeService
	}
	p.Price = parsePrice(r.FormValue("price"))
	p.Stock = parseStock(r.FormValue("stock"))
	p.SortOrder = parseSortOrder(r.FormValue("sort_order"))
	p.IsActive = r.FormValue("is_active") == "1"
	if specs, err := models.ParseSpecifications(r.FormValue("specifications")); err == nil {
		p.Specifications = specs
	}
	return p
}
