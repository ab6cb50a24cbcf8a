package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/erazemk/shramba/internal/catalog"
	"github.com/erazemk/shramba/internal/db"
	"github.com/erazemk/shramba/internal/model"
	"github.com/erazemk/shramba/internal/uploads"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	database := db.NewTestDB(t)
	uploadStore, err := uploads.NewDirStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("NewDirStore: %v", err)
	}

	router := NewRouter(&catalog.Service{DB: database, Uploads: uploadStore})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

// itemForm builds a multipart item form. images maps filename to PNG-typed
// file content.
func itemForm(t *testing.T, fields map[string]string, images map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("writing field %q: %v", key, err)
		}
	}
	for name, content := range images {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, name))
		header.Set("Content-Type", "image/png")
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("creating image part: %v", err)
		}
		part.Write([]byte(content))
	}
	writer.Close()
	return &buf, writer.FormDataContentType()
}

func createItem(t *testing.T, server *httptest.Server, fields map[string]string, images map[string]string) model.Item {
	t.Helper()

	body, contentType := itemForm(t, fields, images)
	resp, err := http.Post(server.URL+"/api/items", contentType, body)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create: expected 200, got %d", resp.StatusCode)
	}

	var item model.Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		t.Fatalf("decoding created item: %v", err)
	}
	return item
}

func getJSON(t *testing.T, url string, target any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if target != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestItemCRUDFlow(t *testing.T) {
	server := setupTestServer(t)

	item := createItem(t, server, map[string]string{
		"name":        "Desk Lamp",
		"description": "adjustable arm",
		"room":        "office",
		"furniture":   "desk",
		"tags":        "electric,fragile",
	}, map[string]string{"lamp.png": "pixels"})

	if item.ID == 0 || item.Name != "Desk Lamp" || item.Room != "office" {
		t.Fatalf("unexpected created item: %+v", item)
	}
	if len(item.Tags) != 2 {
		t.Errorf("expected 2 tags, got %v", item.Tags)
	}
	if len(item.Images) != 1 || !strings.HasPrefix(item.Images[0], "/uploads/") {
		t.Errorf("expected one /uploads/ image reference, got %v", item.Images)
	}

	// Fetch it back.
	var got model.Item
	if status := getJSON(t, fmt.Sprintf("%s/api/items/%d", server.URL, item.ID), &got); status != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", status)
	}
	if got.Name != "Desk Lamp" || got.ViewCount != 0 || got.Favorite {
		t.Errorf("unexpected fetched item: %+v", got)
	}

	// Update without images: references preserved, fields replaced.
	form := url.Values{"name": {"Floor Lamp"}, "room": {"living room"}}
	req, _ := http.NewRequest(http.MethodPut,
		fmt.Sprintf("%s/api/items/%d", server.URL, item.ID),
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("update request: %v", err)
	}
	var updated model.Item
	json.NewDecoder(resp.Body).Decode(&updated)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}
	if updated.Name != "Floor Lamp" || updated.Room != "living room" {
		t.Errorf("unexpected updated item: %+v", updated)
	}
	if len(updated.Images) != 1 || updated.Images[0] != item.Images[0] {
		t.Errorf("expected images preserved on update without files, got %v", updated.Images)
	}

	// Delete, then 404.
	req, _ = http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/items/%d", server.URL, item.ID), nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", resp.StatusCode)
	}
	if status := getJSON(t, fmt.Sprintf("%s/api/items/%d", server.URL, item.ID), nil); status != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", status)
	}
}

func TestCreateItemValidationError(t *testing.T) {
	server := setupTestServer(t)

	body, contentType := itemForm(t, map[string]string{"room": "kitchen"}, nil)
	resp, err := http.Post(server.URL+"/api/items", contentType, body)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing name, got %d", resp.StatusCode)
	}

	var items []model.Item
	getJSON(t, server.URL+"/api/items", &items)
	if len(items) != 0 {
		t.Errorf("expected nothing persisted, got %d items", len(items))
	}
}

func TestCreateItemRejectsNonImageUpload(t *testing.T) {
	server := setupTestServer(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	writer.WriteField("name", "Resume")
	writer.WriteField("room", "office")
	part, _ := writer.CreateFormFile("images", "resume.pdf") // application/octet-stream
	part.Write([]byte("%PDF"))
	writer.Close()

	resp, err := http.Post(server.URL+"/api/items", writer.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for non-image upload, got %d", resp.StatusCode)
	}
}

func TestUpdateMissingItemReturns404(t *testing.T) {
	server := setupTestServer(t)

	body, contentType := itemForm(t, map[string]string{"name": "X", "room": "Y"}, nil)
	req, _ := http.NewRequest(http.MethodPut, server.URL+"/api/items/999", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("update request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestSearchEndpoint(t *testing.T) {
	server := setupTestServer(t)

	createItem(t, server, map[string]string{"name": "Desk Lamp", "room": "office"}, nil)
	createItem(t, server, map[string]string{"name": "Chair", "room": "office"}, nil)

	var items []model.Item
	if status := getJSON(t, server.URL+"/api/items/search?keyword=lamp", &items); status != http.StatusOK {
		t.Fatalf("search: expected 200, got %d", status)
	}
	if len(items) != 1 || items[0].Name != "Desk Lamp" {
		t.Errorf("expected only the lamp, got %v", items)
	}

	resp, _ := http.Get(server.URL + "/api/items/search")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 without keyword, got %d", resp.StatusCode)
	}
}

func TestRoomAndFurnitureEndpoints(t *testing.T) {
	server := setupTestServer(t)

	createItem(t, server, map[string]string{"name": "A", "room": "kitchen", "furniture": "cupboard"}, nil)
	createItem(t, server, map[string]string{"name": "B", "room": "bedroom", "furniture": "wardrobe"}, nil)
	createItem(t, server, map[string]string{"name": "C", "room": "kitchen"}, nil)

	var rooms []string
	getJSON(t, server.URL+"/api/items/rooms", &rooms)
	if len(rooms) != 2 || rooms[0] != "bedroom" || rooms[1] != "kitchen" {
		t.Errorf("expected [bedroom kitchen], got %v", rooms)
	}

	var furniture []string
	getJSON(t, server.URL+"/api/items/rooms/kitchen/furniture", &furniture)
	if len(furniture) != 1 || furniture[0] != "cupboard" {
		t.Errorf("expected [cupboard], got %v", furniture)
	}

	var items []model.Item
	getJSON(t, server.URL+"/api/items/room/kitchen", &items)
	if len(items) != 2 {
		t.Errorf("expected 2 kitchen items, got %d", len(items))
	}
}

func TestFavoriteAndViewEndpoints(t *testing.T) {
	server := setupTestServer(t)

	item := createItem(t, server, map[string]string{"name": "Keys", "room": "hallway"}, nil)

	resp, err := http.Post(fmt.Sprintf("%s/api/items/%d/favorite?favorite=true", server.URL, item.ID), "", nil)
	if err != nil {
		t.Fatalf("favorite request: %v", err)
	}
	var favorited model.Item
	json.NewDecoder(resp.Body).Decode(&favorited)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !favorited.Favorite {
		t.Fatalf("expected favorited item, got status %d item %+v", resp.StatusCode, favorited)
	}

	var favorites []model.Item
	getJSON(t, server.URL+"/api/items/favorites", &favorites)
	if len(favorites) != 1 || favorites[0].ID != item.ID {
		t.Errorf("expected item in favorites, got %v", favorites)
	}

	for i := 0; i < 3; i++ {
		resp, err := http.Post(fmt.Sprintf("%s/api/items/%d/view", server.URL, item.ID), "", nil)
		if err != nil {
			t.Fatalf("view request: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("view: expected 200, got %d", resp.StatusCode)
		}
	}

	var got model.Item
	getJSON(t, fmt.Sprintf("%s/api/items/%d", server.URL, item.ID), &got)
	if got.ViewCount != 3 {
		t.Errorf("expected view count 3, got %d", got.ViewCount)
	}

	var popular []model.Item
	getJSON(t, server.URL+"/api/items/popular", &popular)
	if len(popular) == 0 || popular[0].ID != item.ID {
		t.Errorf("expected the viewed item to lead popular, got %v", popular)
	}

	resp, _ = http.Post(server.URL+"/api/items/999/view", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for missing item view, got %d", resp.StatusCode)
	}
}

func TestStatsEndpoint(t *testing.T) {
	server := setupTestServer(t)

	createItem(t, server, map[string]string{"name": "A", "room": "kitchen"}, nil)
	createItem(t, server, map[string]string{"name": "B", "room": "bedroom"}, nil)

	var stats struct {
		TotalItems int      `json:"totalItems"`
		Rooms      []string `json:"rooms"`
	}
	if status := getJSON(t, server.URL+"/api/items/stats", &stats); status != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", status)
	}
	if stats.TotalItems != 2 {
		t.Errorf("expected totalItems 2, got %d", stats.TotalItems)
	}
	if len(stats.Rooms) != 2 || stats.Rooms[0] != "bedroom" {
		t.Errorf("expected sorted rooms, got %v", stats.Rooms)
	}
}
