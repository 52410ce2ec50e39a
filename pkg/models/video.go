package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Video struct {
	bun.BaseModel `bun:"table:videos,alias:v"`

	ID          int       `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Title       string    `bun:",nullzero" json:"title"`
	Description string    `json:"description"`
	VideoFile   string    `bun:",nullzero" json:"video_file"`
	DurationMS  *int64    `bun:"duration_ms" json:"duration_ms,omitempty"`
	Tags        []*Tag    `bun:"m2m:video_tags,join:Video=Tag" json:"tags,omitempty"`
}

// TagNames returns the names of the video's tags in their loaded order.
func (v *Video) TagNames() []string {
	names := make([]string, 0, len(v.Tags))
	for _, t := range v.Tags {
		names = append(names, t.Name)
	}
	return names
}
