// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data: plain values with no behaviour
// beyond a few helpers, shared by storage, service and transport layers.
package model

import "time"

// Snippet represents a saved code snippet.
//
// Filename is the primary key: the namespace holds at most one Snippet per
// filename, and saving under an existing filename replaces the whole record.
//
// The json tags match the stored record layout:
//
//	{"language":"python","filename":"hello.py","code":"print(1)","lastModified":"2026-10-15T09:00:00Z"}
type Snippet struct {
	Language     string    `json:"language"`
	Filename     string    `json:"filename"`
	Code         string    `json:"code"`
	LastModified time.Time `json:"lastModified"`
}

// Summary returns the listing view of the snippet (everything except the code).
func (s Snippet) Summary() SnippetSummary {
	return SnippetSummary{
		Filename:     s.Filename,
		Language:     s.Language,
		LastModified: s.LastModified,
	}
}

// SnippetSummary is what the snippet list shows. The code body is left out so
// listing stays cheap no matter how large the stored snippets are.
type SnippetSummary struct {
	Filename     string    `json:"filename"`
	Language     string    `json:"language"`
	LastModified time.Time `json:"lastModified"`
}
