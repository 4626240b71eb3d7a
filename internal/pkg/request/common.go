package request

import "strings"

// ByIDRequest binds a uuid :id path parameter (bookings, rooms, users).
type ByIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ListParams is the page/page_size/sort_order query shared by list endpoints.
type ListParams struct {
	Page      int    `form:"page,default=1" binding:"min=1"`
	PageSize  int    `form:"page_size,default=100" binding:"min=1,max=1000"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// Order returns "ASC" or "DESC", or "" when the client did not ask for one.
func (p ListParams) Order() string {
	return strings.ToUpper(p.SortOrder)
}
