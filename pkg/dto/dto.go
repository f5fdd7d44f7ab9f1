// Package dto provides the data transfer objects exchanged between the
// console and the listing API.
package dto

import "time"

// Bucket is a named container of files.
type Bucket struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// File is a regular file inside a bucket.
type File struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modtime"`
}

// Response is the envelope of every listing API answer.
// Error is a pointer so that a missing field can be told apart from false.
type Response[T any] struct {
	Error   *bool  `json:"error"`
	Message string `json:"message,omitempty"`
	Result  *T     `json:"result,omitempty"`
}

// Failed reports whether the envelope signals a backend error.
func (r Response[T]) Failed() bool {
	return r.Error != nil && *r.Error
}

// PageRequest is the body of a pagelist call.
type PageRequest struct {
	Limit   int    `json:"limit"`
	Offset  int    `json:"offset"`
	Pattern string `json:"pattern"`
	Bucket  string `json:"bucket,omitempty"`
}

// BucketPage is the result of a bucket pagelist call.
type BucketPage struct {
	Total   int      `json:"total"`
	Offset  int      `json:"offset"`
	Limit   int      `json:"limit"`
	Pattern string   `json:"pattern,omitempty"`
	Buckets []Bucket `json:"buckets"`
}

// FilePage is the result of a file pagelist call.
type FilePage struct {
	Total   int    `json:"total"`
	Offset  int    `json:"offset"`
	Limit   int    `json:"limit"`
	Bucket  string `json:"bucket"`
	Pattern string `json:"pattern,omitempty"`
	Files   []File `json:"files"`
}

// NewResult wraps a successful result in an envelope.
func NewResult[T any](result T) Response[T] {
	failed := false
	return Response[T]{Error: &failed, Result: &result}
}

// NewMessage builds a successful envelope carrying only a message.
func NewMessage(message string) Response[struct{}] {
	failed := false
	return Response[struct{}]{Error: &failed, Message: message}
}

// NewError builds a failed envelope.
func NewError(message string) Response[struct{}] {
	failed := true
	return Response[struct{}]{Error: &failed, Message: message}
}
