package models

import "errors"

// Error classes for the content pipeline. Stage services wrap their failures
// with the matching class so callers can distinguish a platform-local failure
// from one that must abort the whole post.
var (
	ErrPostNotFound    = errors.New("post not found")
	ErrAccountNotFound = errors.New("platform account not connected")
	ErrAnalysis        = errors.New("image analysis failed")
	ErrGeneration      = errors.New("content generation failed")
	ErrRender          = errors.New("video rendering failed")
	ErrPublishing      = errors.New("publishing failed")
	ErrRepository      = errors.New("repository operation failed")
)
