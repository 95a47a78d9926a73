package repository

import "time"

type HistoryFilter struct {
	MaxCount int
	Since    *time.Time
	Until    *time.Time
	Grep     string
}

type HistoryEntry struct {
	Hash    string    `json:"hash" yaml:"hash"`
	Author  string    `json:"author" yaml:"author"`
	Email   string    `json:"email" yaml:"email"`
	Date    time.Time `json:"date" yaml:"date"`
	Subject string    `json:"subject" yaml:"subject"`
	Body    string    `json:"body,omitempty" yaml:"body,omitempty"`
}
