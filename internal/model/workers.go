package model

// BatchOptions controls how a caller chunks and parallelizes batch
// classification.
type BatchOptions struct {
	Workers   int `json:"workers"`
	ChunkSize int `json:"chunk_size"`
}

// UploadOptions carries per-upload settings.
type UploadOptions struct {
	Transformations []string `json:"transformations"`
}
