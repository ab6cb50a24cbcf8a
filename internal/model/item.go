package model

import "time"

// Item represents a tracked physical object and where it is stored, as a
// three-level location: room, furniture within the room, and a free-text
// spot within the furniture.
type Item struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Room        string    `json:"room"`
	Furniture   string    `json:"furniture,omitempty"`
	Location    string    `json:"location,omitempty"`
	Category    string    `json:"category,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Images      []string  `json:"images,omitempty"`
	Favorite    bool      `json:"favorite"`
	ViewCount   int64     `json:"viewCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MaxDescriptionLen is the longest accepted item description, in characters.
const MaxDescriptionLen = 1000
