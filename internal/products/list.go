package product

import (
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	"github.com/angelmondragon/vendora-backend/pkg/pagination"
)

// ListByTypeInput drives the public catalog browse endpoint.
type ListByTypeInput struct {
	ProductType enums.ProductType
	Pagination  pagination.Params
}

// ProductListResult is one page of products.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"nextCursor,omitempty"`
}
