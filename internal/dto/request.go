package dto

// ChunkHeaders are the partial-upload headers sent with every chunk.
type ChunkHeaders struct {
	ContentRange string
	Filename     string
	Mimetype     string
	Identifier   string
	LastChunk    bool
}
