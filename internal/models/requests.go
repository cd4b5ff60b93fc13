package models

// SaveResult is returned by the save pipeline. Degraded is true when
// extraction failed and only the URL was persisted.
type SaveResult struct {
	Article  *Article `json:"article"`
	Degraded bool     `json:"degraded"`
}

// SaveResponse is the JSON body of /extract
type SaveResponse struct {
	Status string `json:"status"` // saved, saved_fallback
	ID     int64  `json:"id"`
	Title  string `json:"title"`
}

// CollectRequest represents an AI-collect form submission
type CollectRequest struct {
	Hint  string `form:"urls"`  // freeform URLs or keywords
	Count int    `form:"count"` // 0 selects the configured default
}

// Stats holds record counts per tab
type Stats struct {
	Unread   int `json:"unread"`
	Archived int `json:"archived"`
}
