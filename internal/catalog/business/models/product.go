package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusError   SyncStatus = "error"
)

// Product is the local copy of one remote catalog product.
// ParentLocalID never equals LocalID.
type Product struct {
	LocalID         string          `db:"local_id" json:"localId"`
	ConnectionID    string          `db:"connection_id" json:"connectionId"`
	RemoteID        string          `db:"remote_id" json:"remoteId"`
	SKU             string          `db:"sku" json:"sku"`
	ModelNumber     string          `db:"model_number" json:"modelNumber"`
	GTIN            string          `db:"gtin" json:"gtin"`
	Name            string          `db:"name" json:"name"`
	Brand           string          `db:"brand" json:"brand"`
	Price           decimal.Decimal `db:"price" json:"price"`
	Cost            decimal.Decimal `db:"cost" json:"cost"`
	PriceMultiplier decimal.Decimal `db:"price_multiplier" json:"priceMultiplier"`
	ParentLocalID   *string         `db:"parent_local_id" json:"parentLocalId"`
	ParentRemoteID  *string         `db:"parent_remote_id" json:"parentRemoteId"`
	Attributes      Attributes      `db:"attributes" json:"attributes"`
	SyncStatus      SyncStatus      `db:"sync_status" json:"syncStatus"`
	LastSyncedAt    *time.Time      `db:"last_synced_at" json:"lastSyncedAt"`
}

// ParentCandidate is a product whose parent reference could not be resolved yet.
type ParentCandidate struct {
	LocalID        string `db:"local_id"`
	RemoteID       string `db:"remote_id"`
	ParentRemoteID string `db:"parent_remote_id"`
}
