package response

type ListingItem struct {
	ID string `json:"id"`
}

type ListingMeta struct {
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type Listing struct {
	Data []ListingItem `json:"data"`
	Meta ListingMeta   `json:"meta"`
}
