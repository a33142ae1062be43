package entity

const maxPageLimit = 100

type PaginationInput struct {
	Page  int
	Limit int
}

// NewPaginationInput clamps page to >= 1 and limit to [1, 100], falling back
// to the endpoint's default limit when none was passed.
func NewPaginationInput(page int, limit int, defaultLimit int) *PaginationInput {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return &PaginationInput{
		Page:  page,
		Limit: limit,
	}
}

func (p *PaginationInput) Offset() int {
	return (p.Page - 1) * p.Limit
}
