package entity

// RetrievedChunk is a scored fragment of source text
type RetrievedChunk struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	Score     float64           `json:"score"`
	Namespace string            `json:"namespace,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Document is a piece of source text indexed into a namespace
type Document struct {
	ID       string            `json:"id,omitempty"`
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// MetadataNamespace is the metadata key every indexed chunk is tagged with
const MetadataNamespace = "namespace"
