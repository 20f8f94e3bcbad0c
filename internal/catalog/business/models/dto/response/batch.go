package response

import "encoding/json"

// BatchItem is the outcome of one virtual request. Body is set for any status the
// server could answer; Error is set when the item failed before producing a body.
type BatchItem struct {
	ID     string          `json:"id"`
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func (b BatchItem) OK() bool {
	return b.Status >= 200 && b.Status < 300
}

type Batch struct {
	Responses []BatchItem `json:"responses"`
}

// Envelope is the shape of every detail endpoint.
type Envelope[T any] struct {
	Data T `json:"data"`
}
