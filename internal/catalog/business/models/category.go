package models

import "time"

// Category is owned by an upstream process; the sync only reads it.
type Category struct {
	LocalID      string `db:"local_id"`
	ConnectionID string `db:"connection_id"`
	RemoteID     string `db:"remote_id"`
	Name         string `db:"name"`
}

type CategoryRelation struct {
	RelationKey      string     `db:"relation_key"`
	ProductLocalID   string     `db:"product_local_id"`
	CategoryLocalID  string     `db:"category_local_id"`
	RemoteRelationID *string    `db:"remote_relation_id"`
	DeletedAt        *time.Time `db:"deleted_at"`
}
