package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/shramba/internal/model"
)

// itemColumns is the column list used by every item SELECT.
const itemColumns = `id, name, description, room, furniture, location, category,
	tags, images, favorite, view_count, created_at, updated_at`

// CreateItem inserts a new item and returns the stored record with its
// assigned id and timestamps.
func CreateItem(ctx context.Context, db *sql.DB, item *model.Item) (*model.Item, error) {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (name, description, room, furniture, location, category,
		                    tags, images, favorite, view_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Name, item.Description, item.Room, item.Furniture, item.Location, item.Category,
		joinList(item.Tags), joinList(item.Images), item.Favorite, item.ViewCount, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// UpdateItem overwrites an item's descriptive fields and images and
// refreshes updated_at. Favorite and view_count are left untouched.
// Returns ErrNotFound if no item with the given id exists.
func UpdateItem(ctx context.Context, db *sql.DB, item *model.Item) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, description = ?, room = ?, furniture = ?,
		                  location = ?, category = ?, tags = ?, images = ?, updated_at = ?
		 WHERE id = ?`,
		item.Name, item.Description, item.Room, item.Furniture,
		item.Location, item.Category, joinList(item.Tags), joinList(item.Images),
		time.Now().UTC(), item.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}
	if err := ensureAffected(result); err != nil {
		return nil, err
	}

	return GetItem(ctx, db, item.ID)
}

// GetItem returns an item by id, or ErrNotFound.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns all items in insertion order.
func ListItems(ctx context.Context, db *sql.DB) ([]model.Item, error) {
	return queryItems(ctx, db,
		`SELECT `+itemColumns+` FROM items ORDER BY id`)
}

// ListItemsByRoom returns the items in a room, most recently updated first.
func ListItemsByRoom(ctx context.Context, db *sql.DB, room string) ([]model.Item, error) {
	return queryItems(ctx, db,
		`SELECT `+itemColumns+` FROM items WHERE room = ?
		 ORDER BY updated_at DESC, id DESC`, room)
}

// ListItemsByCategory returns the items in a category, most recently
// updated first.
func ListItemsByCategory(ctx context.Context, db *sql.DB, category string) ([]model.Item, error) {
	return queryItems(ctx, db,
		`SELECT `+itemColumns+` FROM items WHERE category = ?
		 ORDER BY updated_at DESC, id DESC`, category)
}

// ListItemsByRoomAndFurniture returns the items stored in a given piece of
// furniture within a room, most recently updated first.
func ListItemsByRoomAndFurniture(ctx context.Context, db *sql.DB, room, furniture string) ([]model.Item, error) {
	return queryItems(ctx, db,
		`SELECT `+itemColumns+` FROM items WHERE room = ? AND furniture = ?
		 ORDER BY updated_at DESC, id DESC`, room, furniture)
}

// SearchItems returns items whose name or description contains the keyword,
// case-insensitively, most recently updated first. instr avoids treating
// LIKE metacharacters in the keyword as wildcards.
func SearchItems(ctx context.Context, db *sql.DB, keyword string) ([]model.Item, error) {
	return queryItems(ctx, db,
		`SELECT `+itemColumns+` FROM items
		 WHERE instr(lower(name), lower(?)) > 0
		    OR instr(lower(coalesce(description, '')), lower(?)) > 0
		 ORDER BY updated_at DESC, id DESC`, keyword, keyword)
}

// ListRooms returns the distinct room names, sorted.
func ListRooms(ctx context.Context, db *sql.DB) ([]string, error) {
	return queryStrings(ctx, db,
		`SELECT DISTINCT room FROM items ORDER BY room`)
}

// ListFurniture returns the distinct non-empty furniture names in a room,
// sorted.
func ListFurniture(ctx context.Context, db *sql.DB, room string) ([]string, error) {
	return queryStrings(ctx, db,
		`SELECT DISTINCT furniture FROM items
		 WHERE room = ? AND furniture IS NOT NULL AND furniture != ''
		 ORDER BY furniture`, room)
}

// ListFavorites returns all favorited items, most recently updated first.
func ListFavorites(ctx context.Context, db *sql.DB) ([]model.Item, error) {
	return queryItems(ctx, db,
		`SELECT `+itemColumns+` FROM items WHERE favorite = 1
		 ORDER BY updated_at DESC, id DESC`)
}

// ListPopular returns the n items with the highest view counts, ties broken
// by most recent update, then id.
func ListPopular(ctx context.Context, db *sql.DB, n int) ([]model.Item, error) {
	return queryItems(ctx, db,
		`SELECT `+itemColumns+` FROM items
		 ORDER BY view_count DESC, updated_at DESC, id LIMIT ?`, n)
}

// SetFavorite sets an item's favorite flag and refreshes updated_at.
// Returns ErrNotFound if no item with the given id exists.
func SetFavorite(ctx context.Context, db *sql.DB, id int64, favorite bool) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET favorite = ?, updated_at = ? WHERE id = ?`,
		favorite, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting favorite: %w", err)
	}
	return ensureAffected(result)
}

// IncrementViewCount adds one to an item's view count in a single UPDATE,
// so concurrent increments of the same item serialize inside SQLite and
// none are lost. Returns ErrNotFound if no item with the given id exists.
func IncrementViewCount(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET view_count = view_count + 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("incrementing view count: %w", err)
	}
	return ensureAffected(result)
}

// DeleteItem removes an item. Returns ErrNotFound if no item with the
// given id exists. Referenced image files are not touched.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return ensureAffected(result)
}

func queryItems(ctx context.Context, db *sql.DB, query string, args ...any) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func queryStrings(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing values: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning value: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*model.Item, error) {
	item := &model.Item{}
	var description, furniture, location, category, tags, images sql.NullString
	err := s.Scan(&item.ID, &item.Name, &description, &item.Room, &furniture, &location,
		&category, &tags, &images, &item.Favorite, &item.ViewCount,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Description = description.String
	item.Furniture = furniture.String
	item.Location = location.String
	item.Category = category.String
	item.Tags = splitList(tags.String)
	item.Images = splitList(images.String)
	return item, nil
}

func ensureAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// joinList serializes a list to the comma-joined TEXT storage form.
func joinList(values []string) string {
	return strings.Join(values, ",")
}

// splitList parses the comma-joined TEXT storage form. Empty input yields
// a nil slice, not a single empty element.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ",")
}
