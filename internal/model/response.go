package model

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Meta describes the page a list response belongs to. Which fields are set
// depends on the pagination strategy; cursor pages carry no count.
type Meta struct {
	Page       int    `json:"page,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     *int   `json:"offset,omitempty"`
	Total      *int   `json:"total,omitempty"`
	TotalPages int    `json:"total_pages,omitempty"`
	Next       string `json:"next,omitempty"`
	Previous   string `json:"previous,omitempty"`
}
