package foundry

import (
	"context"
	"fmt"
)

// VectorStoreParams configures a new vector store.
type VectorStoreParams struct {
	Name     string            `json:"name,omitempty"`
	FileIDs  []string          `json:"file_ids,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// VectorStoresAPI manages the indexes searched by the file_search tool.
type VectorStoresAPI struct {
	httpClient *httpClient
}

// Create builds a vector store over already uploaded files.
func (v *VectorStoresAPI) Create(params VectorStoreParams) (VectorStore, error) {
	return v.CreateWithContext(context.Background(), params)
}

// CreateWithContext builds a vector store with a caller-supplied context.
func (v *VectorStoresAPI) CreateWithContext(ctx context.Context, params VectorStoreParams) (VectorStore, error) {
	var resp VectorStore
	if err := v.httpClient.postJSON(ctx, "/vector_stores", params, nil, &resp); err != nil {
		return VectorStore{}, fmt.Errorf("create vector store: %w", err)
	}
	return resp, nil
}

// Retrieve fetches a vector store.
func (v *VectorStoresAPI) Retrieve(vectorStoreID string) (VectorStore, error) {
	return v.RetrieveWithContext(context.Background(), vectorStoreID)
}

// RetrieveWithContext fetches a vector store with a caller-supplied context.
func (v *VectorStoresAPI) RetrieveWithContext(ctx context.Context, vectorStoreID string) (VectorStore, error) {
	if vectorStoreID == "" {
		return VectorStore{}, fmt.Errorf("vectorStoreID cannot be empty")
	}
	var resp VectorStore
	if err := v.httpClient.getJSON(ctx, "/vector_stores/"+pathEscape(vectorStoreID), nil, &resp); err != nil {
		return VectorStore{}, fmt.Errorf("retrieve vector store %s: %w", vectorStoreID, err)
	}
	return resp, nil
}

// Delete removes a vector store. The indexed files are kept.
func (v *VectorStoresAPI) Delete(vectorStoreID string) error {
	return v.DeleteWithContext(context.Background(), vectorStoreID)
}

// DeleteWithContext removes a vector store with a caller-supplied context.
func (v *VectorStoresAPI) DeleteWithContext(ctx context.Context, vectorStoreID string) error {
	if vectorStoreID == "" {
		return fmt.Errorf("vectorStoreID cannot be empty")
	}
	var resp DeletionStatus
	if err := v.httpClient.deleteJSON(ctx, "/vector_stores/"+pathEscape(vectorStoreID), &resp); err != nil {
		return fmt.Errorf("delete vector store %s: %w", vectorStoreID, err)
	}
	return nil
}
