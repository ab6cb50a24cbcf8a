package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/shramba/internal/catalog"
	"github.com/erazemk/shramba/internal/model"
)

// maxUploadBytes caps a single create/update request, images included.
const maxUploadBytes = 32 << 20

// allowedImageMIME lists the accepted image content types.
var allowedImageMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ItemsHandler handles the item endpoints.
type ItemsHandler struct {
	Catalog *catalog.Service
}

// Create handles POST /api/items (multipart form with optional images).
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	draft, attachments, cleanup, ok := parseItemForm(w, r)
	if !ok {
		return
	}
	defer cleanup()

	item, err := h.Catalog.CreateItem(r.Context(), draft, attachments)
	if err != nil {
		serviceError(w, err, "failed to create item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}. The descriptive fields are fully
// replaced; images are replaced only when new files are uploaded.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	draft, attachments, cleanup, formOK := parseItemForm(w, r)
	if !formOK {
		return
	}
	defer cleanup()

	item, err := h.Catalog.UpdateItem(r.Context(), id, draft, attachments)
	if err != nil {
		serviceError(w, err, "failed to update item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	if err := h.Catalog.DeleteItem(r.Context(), id); err != nil {
		serviceError(w, err, "failed to delete item")
		return
	}
	jsonResponse(w, http.StatusOK, nil)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item, err := h.Catalog.GetItem(r.Context(), id)
	if err != nil {
		serviceError(w, err, "failed to get item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.GetAllItems(r.Context())
	if err != nil {
		serviceError(w, err, "failed to list items")
		return
	}
	jsonResponse(w, http.StatusOK, nonNil(items))
}

// ListByRoom handles GET /api/items/room/{room}.
func (h *ItemsHandler) ListByRoom(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.GetItemsByRoom(r.Context(), r.PathValue("room"))
	if err != nil {
		serviceError(w, err, "failed to list items by room")
		return
	}
	jsonResponse(w, http.StatusOK, nonNil(items))
}

// Search handles GET /api/items/search?keyword=...
func (h *ItemsHandler) Search(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		jsonError(w, http.StatusBadRequest, "keyword required")
		return
	}

	items, err := h.Catalog.SearchItems(r.Context(), keyword)
	if err != nil {
		serviceError(w, err, "failed to search items")
		return
	}
	jsonResponse(w, http.StatusOK, nonNil(items))
}

// ListRooms handles GET /api/items/rooms.
func (h *ItemsHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Catalog.GetAllRooms(r.Context())
	if err != nil {
		serviceError(w, err, "failed to list rooms")
		return
	}
	if rooms == nil {
		rooms = []string{}
	}
	jsonResponse(w, http.StatusOK, rooms)
}

// ListFurniture handles GET /api/items/rooms/{room}/furniture.
func (h *ItemsHandler) ListFurniture(w http.ResponseWriter, r *http.Request) {
	furniture, err := h.Catalog.GetFurnitureByRoom(r.Context(), r.PathValue("room"))
	if err != nil {
		serviceError(w, err, "failed to list furniture")
		return
	}
	if furniture == nil {
		furniture = []string{}
	}
	jsonResponse(w, http.StatusOK, furniture)
}

// ListFavorites handles GET /api/items/favorites.
func (h *ItemsHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.GetFavoriteItems(r.Context())
	if err != nil {
		serviceError(w, err, "failed to list favorites")
		return
	}
	jsonResponse(w, http.StatusOK, nonNil(items))
}

// ListPopular handles GET /api/items/popular.
func (h *ItemsHandler) ListPopular(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.GetPopularItems(r.Context())
	if err != nil {
		serviceError(w, err, "failed to list popular items")
		return
	}
	jsonResponse(w, http.StatusOK, nonNil(items))
}

// ToggleFavorite handles POST /api/items/{id}/favorite?favorite=bool.
func (h *ItemsHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	favorite, err := strconv.ParseBool(r.FormValue("favorite"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "favorite must be true or false")
		return
	}

	item, err := h.Catalog.ToggleFavorite(r.Context(), id, favorite)
	if err != nil {
		serviceError(w, err, "failed to toggle favorite")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// IncrementView handles POST /api/items/{id}/view.
func (h *ItemsHandler) IncrementView(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	if err := h.Catalog.IncrementViewCount(r.Context(), id); err != nil {
		serviceError(w, err, "failed to increment view count")
		return
	}
	jsonResponse(w, http.StatusOK, nil)
}

// Stats handles GET /api/items/stats.
func (h *ItemsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Catalog.GetStats(r.Context())
	if err != nil {
		serviceError(w, err, "failed to get stats")
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}

// itemID parses the {id} path value, answering 400 itself on failure.
func itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return 0, false
	}
	return id, true
}

// parseItemForm reads the create/update form. It accepts multipart (with
// 0..n "images" file parts) as well as plain urlencoded forms. On failure
// it writes the error response and returns ok=false. The cleanup function
// closes any opened file parts and must be called once the catalog is done
// with the attachment readers.
func parseItemForm(w http.ResponseWriter, r *http.Request) (draft catalog.Draft, attachments []catalog.Attachment, cleanup func(), ok bool) {
	cleanup = func() {}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			jsonError(w, http.StatusBadRequest, "file too large or invalid form")
			return draft, nil, cleanup, false
		}
		if err := r.ParseForm(); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid form")
			return draft, nil, cleanup, false
		}
	}

	draft = catalog.Draft{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Room:        r.FormValue("room"),
		Furniture:   r.FormValue("furniture"),
		Location:    r.FormValue("location"),
		Category:    r.FormValue("category"),
		Tags:        splitTags(r.FormValue("tags")),
	}

	if r.MultipartForm == nil {
		return draft, nil, cleanup, true
	}

	var opened []multipart.File
	cleanup = func() {
		for _, f := range opened {
			f.Close()
		}
	}

	for _, header := range r.MultipartForm.File["images"] {
		mime := header.Header.Get("Content-Type")
		if !allowedImageMIME[mime] {
			cleanup()
			jsonError(w, http.StatusBadRequest, "images must be JPEG, PNG, or WebP")
			return draft, nil, func() {}, false
		}

		f, err := header.Open()
		if err != nil {
			cleanup()
			jsonError(w, http.StatusBadRequest, "failed to read uploaded image")
			return draft, nil, func() {}, false
		}
		opened = append(opened, f)
		attachments = append(attachments, catalog.Attachment{Filename: header.Filename, Content: f})
	}

	return draft, attachments, cleanup, true
}

// splitTags parses the comma-separated tags form field. Duplicates are
// kept; surrounding whitespace per tag is trimmed.
func splitTags(value string) []string {
	if value == "" {
		return nil
	}
	tags := strings.Split(value, ",")
	for i, t := range tags {
		tags[i] = strings.TrimSpace(t)
	}
	return tags
}

// nonNil keeps empty listings rendering as [] instead of null.
func nonNil(items []model.Item) []model.Item {
	if items == nil {
		return []model.Item{}
	}
	return items
}
