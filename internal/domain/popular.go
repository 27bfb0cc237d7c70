package domain

// PopularItem is one popular page of a host.
type PopularItem struct {
	Link  string `json:"link"`
	Title string `json:"title"`
	Count int    `json:"count"`
}
