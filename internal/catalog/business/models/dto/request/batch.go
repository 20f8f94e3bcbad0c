package request

// VirtualRequest is one resource fetch executed server-side inside a batch call.
type VirtualRequest struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Path   string `json:"path"`
}

type Batch struct {
	Requests []VirtualRequest `json:"requests"`
}

type SyncStart struct {
	ForceSync bool `json:"forceSync"`
}
