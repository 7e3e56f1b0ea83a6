// internal/domain/customer/dto.go
package customer

type ListFilters struct {
	Status    Status `form:"status"`
	Search    string `form:"search"` // name or phone
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	SortBy    string `form:"sort_by"` // last_activity, created_at, name, interaction_count
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

type ListResponse struct {
	Customers  []Customer `json:"customers"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required"`
}

type UpdateNotesRequest struct {
	Notes string `json:"notes" binding:"max=4000"`
}

type Stats struct {
	Total         int64            `json:"total"`
	ByStatus      map[Status]int64 `json:"by_status"`
	NewLast30Days int64            `json:"new_last_30_days"`
}
