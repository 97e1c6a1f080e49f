package deliverables

import "time"

// Deliverable is a final artifact attached to a request. At least one
// must exist before the request can be marked delivered.
type Deliverable struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"requestId"`
	FileName   string    `json:"fileName"`
	StorageKey string    `json:"-"`
	SizeBytes  int64     `json:"sizeBytes"`
	MimeType   string    `json:"mimeType"`
	UploadedBy string    `json:"uploadedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}
