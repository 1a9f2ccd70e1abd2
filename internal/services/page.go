package services

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type PageRequest struct {
	Limit  int
	Offset int
}

func (p PageRequest) normalize() PageRequest {
	if p.Limit <= 0 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

type Page[T any] struct {
	Items  []T
	Total  int64
	Limit  int
	Offset int
}
