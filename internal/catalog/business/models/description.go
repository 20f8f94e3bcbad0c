package models

// Description is unique per (ProductLocalID, LanguageCode).
type Description struct {
	ProductLocalID      string `db:"product_local_id"`
	LanguageCode        string `db:"language_code"`
	RemoteDescriptionID string `db:"remote_description_id"`
	Name                string `db:"name"`
	MetaTitle           string `db:"meta_title"`
	MetaDescription     string `db:"meta_description"`
	MetaKeywords        string `db:"meta_keywords"`
	ShortDescription    string `db:"short_description"`
	Description         string `db:"description"`
}
