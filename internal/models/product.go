// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrInvalidSpecifications is returned when the specifications text is not
// empty and not a JSON object.
var ErrInvalidSpecifications = errors.New("specifications must be a JSON object")

// ItemType distinguishes physical products from services in the catalog.
type ItemType string

const (
	ItemTypeProduct ItemType = "product"
	ItemTypeService ItemType = "service"
)

// Label returns the Portuguese display label for the item type.
func (t ItemType) Label() string {
	if t == ItemTypeService {
		return "Serviço"
	}
	return "Produto"
}

// ProductImage is one entry of a product's ordered image list. The first
// entry is the cover image. URL is the public object-storage URL; Path is
// the storage key used for deletion.
type ProductImage struct {
	URL  string `json:"url"`
	Path string `json:"path"`
	Alt  string `json:"alt,omitempty"`
}

// Product represents a catalog item row. Public pages only see rows with
// IsActive set; the admin panel sees everything.
type Product struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Description    *string         `json:"description,omitempty"`
	Category       *string         `json:"category,omitempty"`
	ItemType       ItemType        `json:"item_type"`
	Price          *float64        `json:"price,omitempty"`
	Stock          *int            `json:"stock,omitempty"`
	Images         []ProductImage  `json:"images"`
	Specifications json.RawMessage `json:"specifications,omitempty"`
	IsActive       bool            `json:"is_active"`
	SortOrder      int             `json:"sort_order"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CoverImage returns the first image of the normalized list, or nil when
// the product has no images.
func (p *Product) CoverImage() *ProductImage {
	if len(p.Images) == 0 {
		return nil
	}
	return &p.Images[0]
}

// CategoryLabel returns the category for display, or the Portuguese
// "no category" placeholder.
func (p *Product) CategoryLabel() string {
	if p.Category == nil || strings.TrimSpace(*p.Category) == "" {
		return "Sem categoria"
	}
	return *p.Category
}

// PriceLabel formats the price in Brazilian Reais, or "Sob consulta"
// (price on request) when no price is set.
func (p *Product) PriceLabel() string {
	if p.Price == nil {
		return "Sob consulta"
	}
	return FormatPriceBRL(*p.Price)
}

// SpecificationsMap decodes the specifications object for display.
// Returns nil when the product has none or the payload is not an object.
func (p *Product) SpecificationsMap() map[string]any {
	if len(p.Specifications) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(p.Specifications, &m); err != nil {
		return nil
	}
	return m
}

// brPrinter formats numbers with Brazilian separators (1.999,90).
var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

// FormatPriceBRL renders a price as a pt-BR currency string.
func FormatPriceBRL(price float64) string {
	return brPrinter.Sprintf("R$ %.2f", price)
}

// NormalizeImages converts the raw images payload stored in the database
// (or anything a client managed to write there) into a well-formed image
// list. Non-array input yields an empty list; entries that are not objects
// or lack string url/path fields are dropped. It never fails: untyped data
// must not travel past this boundary.
func NormalizeImages(raw json.RawMessage) []ProductImage {
	out := []ProductImage{}
	if len(raw) == 0 {
		return out
	}

	var entries []any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return out
	}

	for _, e := range entries {
		obj, ok := e.(map[string]any)
		if !ok {
			continue
		}
		url, ok := obj["url"].(string)
		if !ok {
			continue
		}
		path, ok := obj["path"].(string)
		if !ok {
			continue
		}
		img := ProductImage{URL: url, Path: path}
		if alt, ok := obj["alt"].(string); ok {
			img.Alt = alt
		}
		out = append(out, img)
	}
	return out
}

// ParseSpecifications validates the free-text specifications field from
// the admin form. Empty text maps to nil (stored as SQL NULL). Non-empty
// text must be a JSON object — arrays and scalars are rejected, matching
// the jsonb column's intended shape.
func ParseSpecifications(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return nil, ErrInvalidSpecifications
	}
	if _, ok := v.(map[string]any); !ok {
		return nil, ErrInvalidSpecifications
	}
	return json.RawMessage(trimmed), nil
}
