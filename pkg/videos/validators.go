package videos

import "mime/multipart"

type ListVideosQuery struct {
	Tag    *string `query:"tag" json:"tag,omitempty" validate:"omitempty,min=1,max=300"`
	Limit  int     `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
}

type CreateVideoPayload struct {
	Title       string   `form:"title" json:"title" mod:"trim" validate:"required,max=300"`
	Description string   `form:"description" json:"description,omitempty" validate:"max=5000"`
	Tags        []string `form:"tags" json:"tags,omitempty" validate:"omitempty,max=100,dive,max=300"`

	FormFiles map[string]*multipart.FileHeader `form:"-" json:"-"`
}

// UpdateVideoPayload is a partial edit: nil fields are left untouched. A nil
// Tags slice means "don't touch the tags"; an empty one clears them.
type UpdateVideoPayload struct {
	Title       *string  `form:"title" json:"title,omitempty" validate:"omitempty,max=300"`
	Description *string  `form:"description" json:"description,omitempty" validate:"omitempty,max=5000"`
	Tags        []string `form:"tags" json:"tags,omitempty" validate:"omitempty,max=100,dive,max=300"`

	FormFiles map[string]*multipart.FileHeader `form:"-" json:"-"`
}
