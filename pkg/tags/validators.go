package tags

type CreateTagPayload struct {
	Name string `json:"name" validate:"required,min=1,max=300"`
}
