package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type AttributeKind string

const (
	AttributeList    AttributeKind = "LIST"
	AttributeText    AttributeKind = "TEXT"
	AttributeInteger AttributeKind = "INTEGER"
	AttributeFloat   AttributeKind = "FLOAT"
)

// IsScalar reports whether values of this kind are stored as a single scalar.
func (k AttributeKind) IsScalar() bool {
	return k == AttributeInteger || k == AttributeFloat
}

// Attribute is embedded in a product; it has no identity of its own.
// Value is a scalar for INTEGER/FLOAT and a list of scalars for LIST/TEXT.
type Attribute struct {
	Kind         AttributeKind `json:"kind"`
	InternalName string        `json:"internalName"`
	DisplayName  string        `json:"displayName"`
	Prefix       *string       `json:"prefix,omitempty"`
	Postfix      *string       `json:"postfix,omitempty"`
	Value        any           `json:"value"`
}

type Attributes []Attribute

func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

func (a *Attributes) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("attributes: unsupported scan type %T", src)
	}
	return json.Unmarshal(data, a)
}

// AttributeDescription is the human-readable label of a remote attribute.
// A miss leaves every field nil.
type AttributeDescription struct {
	DisplayName *string
	Prefix      *string
	Postfix     *string
}

type AttributeRef struct {
	ID   string
	Kind AttributeKind
}
