// Package catalog implements the item catalog service: it owns entity
// validation and orchestrates the item store and the attachment store.
//
// Attachment blobs are write-only from the catalog's point of view:
// deleting an item or replacing its images leaves the old files on disk.
// That matches the reference behavior and is a known gap, not a feature —
// see DESIGN.md before "fixing" it.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/erazemk/shramba/internal/model"
	"github.com/erazemk/shramba/internal/store"
	"github.com/erazemk/shramba/internal/uploads"
)

// ErrNotFound is returned when an operation targets a nonexistent item.
var ErrNotFound = store.ErrNotFound

// ErrValidation is returned when a draft fails validation. The wrapped
// message names the offending field.
var ErrValidation = errors.New("invalid item")

// popularLimit is how many items GetPopularItems returns at most.
const popularLimit = 5

// Service is the item catalog service.
type Service struct {
	DB      *sql.DB
	Uploads uploads.Store
}

// Draft carries the caller-editable fields of an item. Favorite and view
// count are managed through their own operations and never appear here.
type Draft struct {
	Name        string
	Description string
	Room        string
	Furniture   string
	Location    string
	Category    string
	Tags        []string
}

// Attachment is an uploaded image to be stored alongside an item.
type Attachment struct {
	Filename string
	Content  io.Reader
}

// Stats summarizes the catalog.
type Stats struct {
	TotalItems int      `json:"totalItems"`
	Rooms      []string `json:"rooms"`
}

// CreateItem validates the draft, stores any attachments, and inserts the
// item. An attachment write failure aborts the operation before anything
// is persisted to the database.
func (s *Service) CreateItem(ctx context.Context, draft Draft, attachments []Attachment) (*model.Item, error) {
	if err := validate(draft); err != nil {
		return nil, err
	}

	images, err := s.saveAttachments(attachments)
	if err != nil {
		return nil, err
	}

	item := &model.Item{
		Name:        draft.Name,
		Description: draft.Description,
		Room:        draft.Room,
		Furniture:   draft.Furniture,
		Location:    draft.Location,
		Category:    draft.Category,
		Tags:        draft.Tags,
		Images:      images,
	}
	return store.CreateItem(ctx, s.DB, item)
}

// UpdateItem replaces an item's descriptive fields with the draft (a full
// replace, not a merge). When attachments are given, the stored image list
// is replaced wholesale with the new references; previously referenced
// files stay on disk as orphans. Without attachments the image list is
// left untouched. Favorite and view count are never modified here.
func (s *Service) UpdateItem(ctx context.Context, id int64, draft Draft, attachments []Attachment) (*model.Item, error) {
	if err := validate(draft); err != nil {
		return nil, err
	}

	existing, err := store.GetItem(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}

	images := existing.Images
	if len(attachments) > 0 {
		images, err = s.saveAttachments(attachments)
		if err != nil {
			return nil, err
		}
	}

	item := &model.Item{
		ID:          id,
		Name:        draft.Name,
		Description: draft.Description,
		Room:        draft.Room,
		Furniture:   draft.Furniture,
		Location:    draft.Location,
		Category:    draft.Category,
		Tags:        draft.Tags,
		Images:      images,
	}
	return store.UpdateItem(ctx, s.DB, item)
}

// DeleteItem removes the item record. Referenced image files are kept.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	return store.DeleteItem(ctx, s.DB, id)
}

// GetItem returns a single item, or ErrNotFound.
func (s *Service) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	return store.GetItem(ctx, s.DB, id)
}

// GetAllItems returns every item in the catalog.
func (s *Service) GetAllItems(ctx context.Context) ([]model.Item, error) {
	return store.ListItems(ctx, s.DB)
}

// GetItemsByRoom returns the items in a room, most recently updated first.
func (s *Service) GetItemsByRoom(ctx context.Context, room string) ([]model.Item, error) {
	return store.ListItemsByRoom(ctx, s.DB, room)
}

// GetItemsByCategory returns the items in a category.
func (s *Service) GetItemsByCategory(ctx context.Context, category string) ([]model.Item, error) {
	return store.ListItemsByCategory(ctx, s.DB, category)
}

// GetItemsByRoomAndFurniture returns the items stored in a piece of
// furniture within a room.
func (s *Service) GetItemsByRoomAndFurniture(ctx context.Context, room, furniture string) ([]model.Item, error) {
	return store.ListItemsByRoomAndFurniture(ctx, s.DB, room, furniture)
}

// SearchItems returns items whose name or description contains the
// keyword, case-insensitively.
func (s *Service) SearchItems(ctx context.Context, keyword string) ([]model.Item, error) {
	return store.SearchItems(ctx, s.DB, keyword)
}

// GetAllRooms returns the distinct room names, sorted.
func (s *Service) GetAllRooms(ctx context.Context) ([]string, error) {
	return store.ListRooms(ctx, s.DB)
}

// GetFurnitureByRoom returns the distinct furniture names in a room, sorted.
func (s *Service) GetFurnitureByRoom(ctx context.Context, room string) ([]string, error) {
	return store.ListFurniture(ctx, s.DB, room)
}

// GetFavoriteItems returns all favorited items.
func (s *Service) GetFavoriteItems(ctx context.Context) ([]model.Item, error) {
	return store.ListFavorites(ctx, s.DB)
}

// GetPopularItems returns the most viewed items, at most popularLimit.
func (s *Service) GetPopularItems(ctx context.Context) ([]model.Item, error) {
	return store.ListPopular(ctx, s.DB, popularLimit)
}

// ToggleFavorite sets the favorite flag and returns the updated item.
func (s *Service) ToggleFavorite(ctx context.Context, id int64, favorite bool) (*model.Item, error) {
	if err := store.SetFavorite(ctx, s.DB, id, favorite); err != nil {
		return nil, err
	}
	return store.GetItem(ctx, s.DB, id)
}

// IncrementViewCount adds one view to an item. Safe to call concurrently
// for the same id; the store increments atomically.
func (s *Service) IncrementViewCount(ctx context.Context, id int64) error {
	return store.IncrementViewCount(ctx, s.DB, id)
}

// GetStats returns the total item count and the distinct room list.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	items, err := store.ListItems(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	rooms, err := store.ListRooms(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	if rooms == nil {
		rooms = []string{}
	}
	return &Stats{TotalItems: len(items), Rooms: rooms}, nil
}

// saveAttachments stores each attachment in order and returns the
// references. The first failure aborts; files already written for earlier
// attachments are left behind (same orphan policy as image replacement).
func (s *Service) saveAttachments(attachments []Attachment) ([]string, error) {
	var refs []string
	for _, a := range attachments {
		ref, err := s.Uploads.Save(a.Filename, a.Content)
		if err != nil {
			return nil, fmt.Errorf("saving attachment %q: %w", a.Filename, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// validate checks the draft's required fields and bounds.
func validate(draft Draft) error {
	if strings.TrimSpace(draft.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(draft.Room) == "" {
		return fmt.Errorf("%w: room is required", ErrValidation)
	}
	if len([]rune(draft.Description)) > model.MaxDescriptionLen {
		return fmt.Errorf("%w: description exceeds %d characters", ErrValidation, model.MaxDescriptionLen)
	}
	return nil
}
