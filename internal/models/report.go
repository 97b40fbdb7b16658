package models

// Report statuses assigned by the detection backend. A report enters the
// system as pending and resolves exactly once.
const (
	StatusPending   = "pending"
	StatusProcessed = "processed"
	StatusNoDefects = "no_defects"
	StatusFailed    = "failed"
)

const (
	FileTypeImage = "image"
	FileTypeVideo = "video"
)

// Report is one user-submitted defect observation as the backend reports it.
// Timestamps stay strings in the backend's RFC3339 form; the UI layer owns
// presentation formatting.
type Report struct {
	ID          int64       `json:"id"`
	Status      string      `json:"status"`
	CreatedAt   string      `json:"created_at"`
	Latitude    float64     `json:"latitude"`
	Longitude   float64     `json:"longitude"`
	Filename    string      `json:"filename,omitempty"`
	FileType    string      `json:"file_type,omitempty"`
	FileSize    int64       `json:"file_size,omitempty"`
	Description string      `json:"description,omitempty"`
	Detections  []Detection `json:"detections"`
}

// Detection is one identified defect within a report. Order within a report
// is whatever the backend emitted; it is never re-sorted here.
type Detection struct {
	ID         int64   `json:"id,omitempty"`
	ReportID   int64   `json:"report_id,omitempty"`
	DefectType string  `json:"defect_type"`
	Confidence float64 `json:"confidence"`
	Latitude   float64 `json:"latitude,omitempty"`
	Longitude  float64 `json:"longitude,omitempty"`
	CreatedAt  string  `json:"created_at,omitempty"`
}

func (r *Report) Resolved() bool {
	return r.Status != StatusPending
}

// SubmitResponse is the backend's answer to a successful report submission.
type SubmitResponse struct {
	ReportID int64  `json:"report_id"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}
