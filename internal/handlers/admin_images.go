// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"newagro/internal/models"
)

// maxUploadMemory bounds the in-memory part of multipart parsing.
const maxUploadMemory = 32 << 20 // 32 MB

// ObjectStorage is the slice of the storage client the image handlers
// need. Declared here so tests can count calls with a fake.
type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	FileURL(key string) string
}

// filenameSanitizer collapses anything outside the safe character set.
var filenameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// sanitizeFilename makes an uploaded filename safe for use in an object
// key: unsafe runs become single dashes.
func sanitizeFilename(name string) string {
	name = filenameSanitizer.ReplaceAllString(name, "-")
	return strings.Trim(name, "-")
}

// imageKey builds the object key for an uploaded product image. The
// random component makes the key unique; the sanitized original name
// keeps the bucket browsable.
func imageKey(productID int64, filename string) string {
	ext := filepath.Ext(filename)
	return fmt.Sprintf("products/%d/%s%s-%s", productID, uuid.NewString(), ext, sanitizeFilename(filename))
}

// UploadImages attaches one or more files to an existing product. Files
// upload sequentially and the batch fails fast: the first storage error
// stops the loop, but everything uploaded before it is persisted on the
// product, so a partial batch is never silently lost. Requires a saved
// product; there is no upload target before the row exists.
func (a *Admin) UploadImages(w http.ResponseWriter, r *http.Request) {
	product, ok := a.findProduct(w, r)
	if !ok {
		return
	}

	if a.storage == nil {
		a.renderForm(w, r, product, "Armazenamento de imagens não configurado.")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		a.renderForm(w, r, product, "Não foi possível ler os arquivos enviados.")
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		http.Redirect(w, r, "/admin/produtos/"+strconv.FormatInt(product.ID, 10), http.StatusSeeOther)
		return
	}

	images := product.Images
	var failed string

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			slog.Error("open upload failed", "error", err, "file", fh.Filename)
			failed = fh.Filename
			break
		}

		key := imageKey(product.ID, fh.Filename)
		contentType := fh.Header.Get("Content-Type")
		err = a.storage.Upload(r.Context(), key, contentType, f, fh.Size)
		f.Close()
		if err != nil {
			slog.Error("image upload failed", "error", err, "file", fh.Filename, "key", key)
			failed = fh.Filename
			break
		}

		images = append(images, models.ProductImage{
			URL:  a.storage.FileURL(key),
			Path: key,
			Alt:  fh.Filename,
		})
	}

	// Persist whatever made it into storage, even on a partial batch.
	if len(images) != len(product.Images) {
		if err := a.products.UpdateImages(product.ID, images); err != nil {
			slog.Error("persist images failed", "error", err, "id", product.ID)
			a.renderForm(w, r, product, "As imagens foram enviadas mas não puderam ser salvas. Tente novamente.")
			return
		}
		product.Images = images
		a.refresh(r.Context())
	}

	if failed != "" {
		a.renderForm(w, r, product,
			fmt.Sprintf("Falha ao enviar %q. As imagens enviadas antes dela foram mantidas.", failed))
		return
	}

	http.Redirect(w, r, "/admin/produtos/"+strconv.FormatInt(product.ID, 10), http.StatusSeeOther)
}

// DeleteImage removes one image from a product. Storage goes first: if
// the object delete fails, the persisted list stays untouched so the
// entry never dangles without its file still existing.
func (a *Admin) DeleteImage(w http.ResponseWriter, r *http.Request) {
	product, ok := a.findProduct(w, r)
	if !ok {
		return
	}

	if a.storage == nil {
		a.renderForm(w, r, product, "Armazenamento de imagens não configurado.")
		return
	}

	path := r.FormValue("path")
	idx := -1
	for i, img := range product.Images {
		if img.Path == path {
			idx = i
			break
		}
	}
	if idx == -1 {
		http.Redirect(w, r, "/admin/produtos/"+strconv.FormatInt(product.ID, 10), http.StatusSeeOther)
		return
	}

	if err := a.storage.Delete(r.Context(), path); err != nil {
		slog.Error("image delete failed", "error", err, "key", path)
		a.renderForm(w, r, product, "Não foi possível excluir a imagem do armazenamento.")
		return
	}

	images := append(product.Images[:idx:idx], product.Images[idx+1:]...)
	if err := a.products.UpdateImages(product.ID, images); err != nil {
		slog.Error("persist images failed", "error", err, "id", product.ID)
		a.renderForm(w, r, product, "A imagem foi excluída mas a lista não pôde ser salva. Recarregue a página.")
		return
	}

	a.refresh(r.Context())
	http.Redirect(w, r, "/admin/produtos/"+strconv.FormatInt(product.ID, 10), http.StatusSeeOther)
}
