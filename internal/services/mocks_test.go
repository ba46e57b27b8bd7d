package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/scanpay/backend/internal/appwrite"
)

type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]any) (appwrite.Document, error) {
	args := m.Called(ctx, databaseID, collectionID, documentID, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(appwrite.Document), args.Error(1)
}

func (m *MockDocumentStore) ListDocuments(ctx context.Context, databaseID, collectionID string, queries []string) (*appwrite.DocumentList, error) {
	args := m.Called(ctx, databaseID, collectionID, queries)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appwrite.DocumentList), args.Error(1)
}

func (m *MockDocumentStore) UpdateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]any) (appwrite.Document, error) {
	args := m.Called(ctx, databaseID, collectionID, documentID, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(appwrite.Document), args.Error(1)
}

func (m *MockDocumentStore) DeleteDocument(ctx context.Context, databaseID, collectionID, documentID string) error {
	args := m.Called(ctx, databaseID, collectionID, documentID)
	return args.Error(0)
}

type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) UploadFile(ctx context.Context, bucketID, fileID, filename string, content []byte) (*appwrite.File, error) {
	args := m.Called(ctx, bucketID, fileID, filename, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appwrite.File), args.Error(1)
}

func (m *MockFileStore) DeleteFile(ctx context.Context, bucketID, fileID string) error {
	args := m.Called(ctx, bucketID, fileID)
	return args.Error(0)
}

func (m *MockFileStore) FileViewURL(bucketID, fileID string) string {
	args := m.Called(bucketID, fileID)
	return args.String(0)
}

type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) ListUsers(ctx context.Context) (*appwrite.UserList, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appwrite.UserList), args.Error(1)
}

func (m *MockUserDirectory) CreateUser(ctx context.Context, userID, email, password, name string) (*appwrite.User, error) {
	args := m.Called(ctx, userID, email, password, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appwrite.User), args.Error(1)
}

func (m *MockUserDirectory) GetUser(ctx context.Context, userID string) (*appwrite.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appwrite.User), args.Error(1)
}

func (m *MockUserDirectory) UpdateName(ctx context.Context, userID, name string) error {
	args := m.Called(ctx, userID, name)
	return args.Error(0)
}

func (m *MockUserDirectory) UpdateEmail(ctx context.Context, userID, email string) error {
	args := m.Called(ctx, userID, email)
	return args.Error(0)
}

func (m *MockUserDirectory) UpdateLabels(ctx context.Context, userID string, labels []string) error {
	args := m.Called(ctx, userID, labels)
	return args.Error(0)
}

func (m *MockUserDirectory) UpdatePassword(ctx context.Context, userID, password string) error {
	args := m.Called(ctx, userID, password)
	return args.Error(0)
}

func (m *MockUserDirectory) UpdateStatus(ctx context.Context, userID string, status bool) error {
	args := m.Called(ctx, userID, status)
	return args.Error(0)
}

func (m *MockUserDirectory) DeleteUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
