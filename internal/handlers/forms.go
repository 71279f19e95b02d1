// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"newagro/internal/models"
)

// Validation limits for product form fields.
const (
	maxNameLen        = 300
	maxDescriptionLen = 10_000
	maxCategoryLen    = 200
)

// parseProductForm reads the product editor form into a Product. The name
// is the only hard requirement; every numeric field coerces leniently so a
// stray character never blocks a save: an unparseable price or stock
// becomes NULL, an unparseable sort order becomes 0. The specifications
// text must be empty or a JSON object and is validated here, before any
// write happens.
//
// Returns the parsed product and an empty string, or nil and the first
// validation error found.
func parseProductForm(r *http.Request) (*models.Product, string) {
	p := &models.Product{}

	p.Name = strings.TrimSpace(r.FormValue("name"))
	if p.Name == "" {
		return nil, "Informe o nome do item."
	}
	if utf8.RuneCountInString(p.Name) > maxNameLen {
		return nil, "O nome é muito longo (máximo 300 caracteres)."
	}

	if desc := strings.TrimSpace(r.FormValue("description")); desc != "" {
		if utf8.RuneCountInString(desc) > maxDescriptionLen {
			return nil, "A descrição é muito longa (máximo 10.000 caracteres)."
		}
		p.Description = &desc
	}

	if cat := strings.TrimSpace(r.FormValue("category")); cat != "" {
		if utf8.RuneCountInString(cat) > maxCategoryLen {
			return nil, "A categoria é muito longa (máximo 200 caracteres)."
		}
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

	specs, err := models.ParseSpecifications(r.FormValue("specifications"))
	if err != nil {
		return nil, "Especificações devem estar em branco ou conter um objeto JSON válido."
	}
	p.Specifications = specs

	return p, ""
}

// parsePrice converts the price text to a nullable float. Accepts the
// Brazilian decimal comma. Empty, unparseable, negative, or non-finite
// input means "no price" (shown as "Sob consulta"), never an error.
func parsePrice(text string) *float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, ",", ".")
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// parseStock converts the stock text to a nullable int. Empty or
// unparseable input means "stock not tracked".
func parseStock(text string) *int {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	v, err := strconv.Atoi(text)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

// parseSortOrder converts the sort order text to an int, defaulting to 0.
func parseSortOrder(text string) int {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0
	}
	return v
}
