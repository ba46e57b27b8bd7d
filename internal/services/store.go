package services

import (
	"context"

	"github.com/scanpay/backend/internal/appwrite"
)

// DocumentStore is the document-database surface the services consume,
// satisfied by *appwrite.Client.
type DocumentStore interface {
	CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]any) (appwrite.Document, error)
	ListDocuments(ctx context.Context, databaseID, collectionID string, queries []string) (*appwrite.DocumentList, error)
	UpdateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]any) (appwrite.Document, error)
	DeleteDocument(ctx context.Context, databaseID, collectionID, documentID string) error
}

// FileStore is the storage-bucket surface, satisfied by *appwrite.Client.
type FileStore interface {
	UploadFile(ctx context.Context, bucketID, fileID, filename string, content []byte) (*appwrite.File, error)
	DeleteFile(ctx context.Context, bucketID, fileID string) error
	FileViewURL(bucketID, fileID string) string
}

// UserDirectory is the auth provider's user management surface, satisfied by
// *appwrite.Client.
type UserDirectory interface {
	ListUsers(ctx context.Context) (*appwrite.UserList, error)
	CreateUser(ctx context.Context, userID, email, password, name string) (*appwrite.User, error)
	GetUser(ctx context.Context, userID string) (*appwrite.User, error)
	UpdateName(ctx context.Context, userID, name string) error
	UpdateEmail(ctx context.Context, userID, email string) error
	UpdateLabels(ctx context.Context, userID string, labels []string) error
	UpdatePassword(ctx context.Context, userID, password string) error
	UpdateStatus(ctx context.Context, userID string, status bool) error
	DeleteUser(ctx context.Context, userID string) error
}
