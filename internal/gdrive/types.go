package gdrive

import "time"

// DefaultLookbackHours is the scan window used when none is given
const DefaultLookbackHours = 36

// File statuses kept in the index
const (
	StatusActive  = "active"
	StatusDeleted = "deleted"
)

// SharedDrive is a Google shared drive
type SharedDrive struct {
	ID   string
	Name string
}

// RemoteFile is a file as returned by the Drive API
type RemoteFile struct {
	ID           string
	Name         string
	MimeType     string
	Size         int64
	ModifiedTime time.Time
	WebViewLink  string
	Parents      []string
	DriveID      string
}

// Folder is a Drive folder used to resolve file paths
type Folder struct {
	ID      string
	Name    string
	Parents []string
	DriveID string
}

// File is an indexed file with its resolved shared-drive path
type File struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MimeType     string    `json:"type"`
	Size         int64     `json:"size,omitempty"`
	ModifiedTime time.Time `json:"modifiedTime"`
	WebViewLink  string    `json:"webViewLink,omitempty"`
	DownloadLink string    `json:"downloadLink,omitempty"`
	SharedDrive  string    `json:"sharedDrive,omitempty"`
	FullPath     string    `json:"fullPath,omitempty"`
	Status       string    `json:"status"`
	LastSynced   time.Time `json:"lastSynced"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Changes lists file names per kind of change
type Changes struct {
	Added    []string `json:"added"`
	Modified []string `json:"modified"`
	Deleted  []string `json:"deleted"`
}

// Count returns the total number of changes
func (c Changes) Count() int {
	return len(c.Added) + len(c.Modified) + len(c.Deleted)
}

// ScanRequest is the body of POST /gdrive/scan
type ScanRequest struct {
	LookbackHours int `json:"lookbackHours"`
}

// ChangeSet is the result of a scan
type ChangeSet struct {
	FilesScanned    int       `json:"filesScanned"`
	ChangesDetected int       `json:"changesDetected"`
	Changes         Changes   `json:"changes"`
	ScanID          int64     `json:"scanId"`
	ScannedAt       time.Time `json:"scannedAt"`
}

// ScanLog is one entry of the scan history
type ScanLog struct {
	ID              int64     `json:"id"`
	ScannedAt       time.Time `json:"scannedAt"`
	LookbackHours   int       `json:"lookbackHours"`
	FilesScanned    int       `json:"filesScanned"`
	ChangesDetected int       `json:"changesDetected"`
	Changes         Changes   `json:"changes"`
	Status          string    `json:"status"`
	Error           string    `json:"error,omitempty"`
}

// Document is the downloadable export of recent Drive activity
type Document struct {
	ExportTime    time.Time     `json:"exportTime"`
	LookbackHours int           `json:"lookbackHours"`
	Summary       Summary       `json:"summary"`
	Changes       Changes       `json:"changes"`
	Files         DocumentFiles `json:"files"`
}

// Summary aggregates the exported files
type Summary struct {
	TotalActiveFiles  int               `json:"totalActiveFiles"`
	TotalDeletedFiles int               `json:"totalDeletedFiles"`
	ChangesInPeriod   ChangeCounts      `json:"changesInPeriod"`
	FileTypes         map[string]int    `json:"fileTypes"`
	SizeDistribution  *SizeDistribution `json:"sizeDistribution"`
}

// ChangeCounts counts changes per kind
type ChangeCounts struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Deleted  int `json:"deleted"`
}

// SizeDistribution describes the sizes of files that report one
type SizeDistribution struct {
	Total    int64 `json:"total"`
	Average  int64 `json:"average"`
	Largest  int64 `json:"largest"`
	Smallest int64 `json:"smallest"`
}

// DocumentFiles splits exported files by status
type DocumentFiles struct {
	Active  []File `json:"active"`
	Deleted []File `json:"deleted"`
}
