package domain

import "time"

const (
	CVContentType = "application/pdf"
	MaxCVSize     = 5 * 1024 * 1024 // 5MB
)

// CVFile is the metadata projection shown next to the profile.
type CVFile struct {
	Filename    string
	LastUpdated time.Time
}

// CVUpload is the payload written to the profile by an upload.
type CVUpload struct {
	Filename  string
	Data      []byte
	UpdatedAt time.Time
}

// CVDocument is a stored CV ready to be downloaded.
type CVDocument struct {
	Filename    string
	ContentType string
	Data        []byte
}
