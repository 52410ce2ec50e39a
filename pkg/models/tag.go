package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Tag names are unique and case-sensitive: "Tag1" and "tag1" are distinct.
type Tag struct {
	bun.BaseModel `bun:"table:tags,alias:t"`

	ID         int       `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Name       string    `bun:",nullzero" json:"name"`
	VideoCount int       `bun:",scanonly" json:"video_count"`
}

type VideoTag struct {
	bun.BaseModel `bun:"table:video_tags,alias:vt"`

	ID      int    `bun:",pk,nullzero" json:"id"`
	VideoID int    `bun:",nullzero" json:"video_id"`
	Video   *Video `bun:"rel:belongs-to,join:video_id=id" json:"-"`
	TagID   int    `bun:",nullzero" json:"tag_id"`
	Tag     *Tag   `bun:"rel:belongs-to,join:tag_id=id" json:"tag,omitempty"`
}
