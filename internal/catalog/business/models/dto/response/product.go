package response

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type ProductDetail struct {
	ID              string              `json:"id"`
	ParentID        string              `json:"parentId"`
	SKU             string              `json:"sku"`
	ModelNumber     string              `json:"modelNumber"`
	GTIN            string              `json:"gtin"`
	Name            string              `json:"name"`
	Brand           string              `json:"brand"`
	Price           decimal.Decimal     `json:"price"`
	Cost            decimal.Decimal     `json:"cost"`
	PriceMultiplier decimal.NullDecimal `json:"priceMultiplier"`
	Descriptions    []Description       `json:"descriptions"`
	Attributes      []Attribute         `json:"attributes"`
	Images          []Image             `json:"images"`
	ImageMeta       []ImageMeta         `json:"imageMeta"`
	Categories      []CategoryRef       `json:"categories"`
}

type Description struct {
	ID               string `json:"id"`
	Language         string `json:"language"`
	Name             string `json:"name"`
	MetaTitle        string `json:"metaTitle"`
	MetaDescription  string `json:"metaDescription"`
	MetaKeywords     string `json:"metaKeywords"`
	ShortDescription string `json:"shortDescription"`
	Description      string `json:"description"`
}

type Attribute struct {
	ID    string          `json:"id"`
	Kind  string          `json:"kind"`
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type Image struct {
	Path     string `json:"path"`
	Position int    `json:"position"`
	Main     bool   `json:"main"`
}

type ImageMeta struct {
	Path    string `json:"path"`
	AltText string `json:"altText"`
}

type CategoryRef struct {
	CategoryID string `json:"categoryId"`
	RelationID string `json:"relationId"`
}

type AttributeDetail struct {
	ID      string  `json:"id"`
	Name    *string `json:"name"`
	Prefix  *string `json:"prefix"`
	Postfix *string `json:"postfix"`
}
