package api

import (
	"net/http"

	"github.com/erazemk/shramba/internal/catalog"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(svc *catalog.Service) http.Handler {
	mux := http.NewServeMux()

	items := &ItemsHandler{Catalog: svc}

	// Literal segments win over {id}, so the aggregate routes below do not
	// clash with GET /api/items/{id}.
	mux.HandleFunc("POST /api/items", items.Create)
	mux.HandleFunc("GET /api/items", items.List)
	mux.HandleFunc("GET /api/items/search", items.Search)
	mux.HandleFunc("GET /api/items/rooms", items.ListRooms)
	mux.HandleFunc("GET /api/items/rooms/{room}/furniture", items.ListFurniture)
	mux.HandleFunc("GET /api/items/room/{room}", items.ListByRoom)
	mux.HandleFunc("GET /api/items/favorites", items.ListFavorites)
	mux.HandleFunc("GET /api/items/popular", items.ListPopular)
	mux.HandleFunc("GET /api/items/stats", items.Stats)
	mux.HandleFunc("GET /api/items/{id}", items.Get)
	mux.HandleFunc("PUT /api/items/{id}", items.Update)
	mux.HandleFunc("DELETE /api/items/{id}", items.Delete)
	mux.HandleFunc("POST /api/items/{id}/favorite", items.ToggleFavorite)
	mux.HandleFunc("POST /api/items/{id}/view", items.IncrementView)

	return mux
}
