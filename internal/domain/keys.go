package domain

// KeyPrefix namespaces every key this service writes to the store.
const KeyPrefix = "supportrag:"

// Reserved hash field names for indexed chunks.
const (
	FieldContent    = "__content"
	FieldVector     = "__vector"
	FieldChunkID    = "chunk_id"
	FieldSource     = "source"
	FieldSourceFile = "source_file"
	FieldSourcePath = "source_path"
	FieldChunkIndex = "chunk_index"
	FieldPage       = "page"
)
