package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/docmesh/docmesh/pkg/models"
)

// MockDocumentStore is a testify mock of DocumentStore
type MockDocumentStore struct {
	mock.Mock
}

// FetchChunksWithDocuments implements DocumentStore.FetchChunksWithDocuments
func (m *MockDocumentStore) FetchChunksWithDocuments(ctx context.Context, tenantID uuid.UUID) ([]models.ChunkWithDocument, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChunkWithDocument), args.Error(1)
}

// FetchDocuments implements DocumentStore.FetchDocuments
func (m *MockDocumentStore) FetchDocuments(ctx context.Context, tenantID uuid.UUID) ([]models.Document, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Document), args.Error(1)
}

// ReplaceClusters implements DocumentStore.ReplaceClusters
func (m *MockDocumentStore) ReplaceClusters(ctx context.Context, tenantID uuid.UUID, clusters []models.Cluster) error {
	args := m.Called(ctx, tenantID, clusters)
	return args.Error(0)
}
