package model

import "time"

// DeletedTaskRecord is a recycle-bin entry. It keeps where the task lived so
// a restore can put it back in place.
type DeletedTaskRecord struct {
	Task              Task      `json:"task"`
	ProjectColor      string    `json:"projectColor"`
	DeletedAt         time.Time `json:"deletedAt"`
	OriginalContainer Container `json:"originalContainer"`
	OriginalIndex     int       `json:"originalIndex"`
}

// CompletedTaskRecord is an entry of the completion archive
type CompletedTaskRecord struct {
	Task              Task      `json:"task"`
	ProjectColor      string    `json:"projectColor"`
	CompletedAt       time.Time `json:"completedAt"`
	OriginalContainer Container `json:"originalContainer"`
	OriginalIndex     int       `json:"originalIndex"`
}
