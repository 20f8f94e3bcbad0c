package models

type AltTextStatus string

const (
	AltTextPending AltTextStatus = "pending"
	AltTextSynced  AltTextStatus = "synced"
)

// Image is unique per (ProductLocalID, RemotePath). At most one image of a product is main.
type Image struct {
	ProductLocalID string        `db:"product_local_id"`
	RemotePath     string        `db:"remote_path"`
	URL            string        `db:"url"`
	SortOrder      int           `db:"sort_order"`
	IsMain         bool          `db:"is_main"`
	AltText        *string       `db:"alt_text"`
	AltTextStatus  AltTextStatus `db:"alt_text_status"`
}
