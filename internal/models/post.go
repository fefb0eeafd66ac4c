package models

import "time"

type Category string

const (
	CategoryStrategy      Category = "Strategy"
	CategoryMarketing     Category = "Marketing and Sales"
	CategoryFinance       Category = "Finance"
	CategoryMindset       Category = "Mindset"
	CategoryCommunication Category = "Communication"
)

var Categories = []Category{
	CategoryStrategy,
	CategoryMarketing,
	CategoryFinance,
	CategoryMindset,
	CategoryCommunication,
}

func CategoryNames() []string {
	out := make([]string, len(Categories))
	for i, c := range Categories {
		out[i] = string(c)
	}
	return out
}

func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

type ThumbnailKind string

const (
	ThumbnailFile ThumbnailKind = "file"
	ThumbnailURL  ThumbnailKind = "url"
)

const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 5000
	MaxContentLen     = 1_000_000
)

type Post struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Slug          string        `json:"slug"`
	Description   string        `json:"description"`
	Category      Category      `json:"category"`
	Content       string        `json:"content"`
	Thumbnail     string        `json:"thumbnail"`
	ThumbnailKind ThumbnailKind `json:"thumbnail_kind"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// PostView is a Post with a thumbnail URL the client can fetch directly.
type PostView struct {
	Post
	ThumbnailURL string `json:"thumbnail_url"`
}
