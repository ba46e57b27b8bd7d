package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"

	"github.com/scanpay/backend/internal/appwrite"
	"github.com/scanpay/backend/internal/config"
	"github.com/scanpay/backend/internal/models"
)

// ErrQRCodeNotFound is returned when no QR record matches the business id.
var ErrQRCodeNotFound = errors.New("qr code not found")

const (
	qrListLimit       = 100
	ownershipCacheTTL = 2 * time.Minute
)

// QRService manages QR code records and their display images. Records are
// always resolved by the gateway-assigned qrId, never by the storage
// document id.
type QRService struct {
	store DocumentStore
	files FileStore
	redis *redis.Client
	cfg   config.AppwriteConfig
}

// NewQRService builds the service. redisClient may be nil; ownership lookups
// then skip the cache.
func NewQRService(store DocumentStore, files FileStore, redisClient *redis.Client, cfg config.AppwriteConfig) *QRService {
	return &QRService{
		store: store,
		files: files,
		redis: redisClient,
		cfg:   cfg,
	}
}

func docToQRCode(doc appwrite.Document) models.QRCode {
	return models.QRCode{
		QrID:              doc.String("qrId"),
		FileID:            doc.String("fileId"),
		ImageURL:          doc.String("imageUrl"),
		AssignedUserID:    doc.String("assignedUserId"),
		IsActive:          doc.Bool("isActive"),
		TotalTransactions: doc.Int64("totalTransactions"),
		TotalPayInAmount:  doc.Int64("totalPayInAmount"),
		CreatedAt:         doc.String("createdAt"),
	}
}

// ListQRCodes returns the most recent QR records, newest first.
func (s *QRService) ListQRCodes(ctx context.Context) ([]models.QRCode, error) {
	list, err := s.store.ListDocuments(ctx, s.cfg.DatabaseID, s.cfg.QRCodeCollectionID, []string{
		appwrite.QueryOrderDesc("createdAt"),
		appwrite.QueryLimit(qrListLimit),
	})
	if err != nil {
		return nil, fmt.Errorf("listing qr codes: %w", err)
	}

	codes := make([]models.QRCode, 0, len(list.Documents))
	for _, doc := range list.Documents {
		codes = append(codes, docToQRCode(doc))
	}
	return codes, nil
}

// CreateEntry records a new QR code. When the caller supplies no file, a PNG
// of the qrId payload is rendered and uploaded so the admin panel always has
// an image to display.
func (s *QRService) CreateEntry(ctx context.Context, qrID, fileID, imageURL, createdAt string) (*models.QRCode, error) {
	if fileID == "" {
		uploaded, err := s.generateImage(ctx, qrID)
		if err != nil {
			return nil, err
		}
		fileID = uploaded.ID
		imageURL = s.files.FileViewURL(s.cfg.BucketID, uploaded.ID)
	}

	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}

	doc, err := s.store.CreateDocument(ctx, s.cfg.DatabaseID, s.cfg.QRCodeCollectionID, appwrite.UniqueID(), map[string]any{
		"qrId":           qrID,
		"fileId":         fileID,
		"imageUrl":       imageURL,
		"assignedUserId": nil,
		"isActive":       true,
		"createdAt":      createdAt,
	})
	if err != nil {
		return nil, fmt.Errorf("creating qr entry: %w", err)
	}

	code := docToQRCode(doc)
	return &code, nil
}

func (s *QRService) generateImage(ctx context.Context, qrID string) (*appwrite.File, error) {
	png, err := qrcode.Encode(qrID, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("rendering qr image: %w", err)
	}

	file, err := s.files.UploadFile(ctx, s.cfg.BucketID, appwrite.UniqueID(), qrID+".png", png)
	if err != nil {
		return nil, fmt.Errorf("uploading qr image: %w", err)
	}
	return file, nil
}

// findByQrID resolves a QR document by its business identifier.
func (s *QRService) findByQrID(ctx context.Context, qrID string) (appwrite.Document, error) {
	list, err := s.store.ListDocuments(ctx, s.cfg.DatabaseID, s.cfg.QRCodeCollectionID, []string{
		appwrite.QueryEqual("qrId", qrID),
		appwrite.QueryLimit(1),
	})
	if err != nil {
		return nil, fmt.Errorf("looking up qr code: %w", err)
	}
	if len(list.Documents) == 0 {
		return nil, ErrQRCodeNotFound
	}
	return list.Documents[0], nil
}

// DeleteQRCode removes the stored image and then the record.
func (s *QRService) DeleteQRCode(ctx context.Context, qrID string) error {
	doc, err := s.findByQrID(ctx, qrID)
	if err != nil {
		return err
	}

	if fileID := doc.String("fileId"); fileID != "" {
		if err := s.files.DeleteFile(ctx, s.cfg.BucketID, fileID); err != nil {
			return fmt.Errorf("deleting qr image: %w", err)
		}
	}
	if err := s.store.DeleteDocument(ctx, s.cfg.DatabaseID, s.cfg.QRCodeCollectionID, doc.ID()); err != nil {
		return fmt.Errorf("deleting qr entry: %w", err)
	}

	s.invalidateOwnership(ctx, doc.String("assignedUserId"))
	return nil
}

// SetActive toggles the active flag. Only that field is written.
func (s *QRService) SetActive(ctx context.Context, qrID string, isActive bool) error {
	doc, err := s.findByQrID(ctx, qrID)
	if err != nil {
		return err
	}

	if _, err := s.store.UpdateDocument(ctx, s.cfg.DatabaseID, s.cfg.QRCodeCollectionID, doc.ID(), map[string]any{
		"isActive": isActive,
	}); err != nil {
		return fmt.Errorf("updating qr status: %w", err)
	}
	return nil
}

// AssignUser links a QR code to a user, or clears the link when userID is
// empty. The ownership cache entries for both affected users are dropped.
func (s *QRService) AssignUser(ctx context.Context, qrID, userID string) error {
	doc, err := s.findByQrID(ctx, qrID)
	if err != nil {
		return err
	}

	var assigned any
	if userID != "" {
		assigned = userID
	}
	if _, err := s.store.UpdateDocument(ctx, s.cfg.DatabaseID, s.cfg.QRCodeCollectionID, doc.ID(), map[string]any{
		"assignedUserId": assigned,
	}); err != nil {
		return fmt.Errorf("updating qr assignment: %w", err)
	}

	s.invalidateOwnership(ctx, doc.String("assignedUserId"))
	s.invalidateOwnership(ctx, userID)
	return nil
}

// ListUserQRCodes returns the QR records assigned to a user.
func (s *QRService) ListUserQRCodes(ctx context.Context, userID string) ([]models.QRCode, error) {
	list, err := s.store.ListDocuments(ctx, s.cfg.DatabaseID, s.cfg.QRCodeCollectionID, []string{
		appwrite.QueryEqual("assignedUserId", userID),
	})
	if err != nil {
		return nil, fmt.Errorf("listing user qr codes: %w", err)
	}

	codes := make([]models.QRCode, 0, len(list.Documents))
	for _, doc := range list.Documents {
		codes = append(codes, docToQRCode(doc))
	}
	return codes, nil
}

func ownershipCacheKey(userID string) string {
	return "qrcodes:owner:" + userID
}

// QrIDsForUser resolves the business ids of a user's QR codes, serving from
// the Redis cache when possible.
func (s *QRService) QrIDsForUser(ctx context.Context, userID string) ([]string, error) {
	if s.redis != nil {
		if cached, err := s.redis.SMembers(ctx, ownershipCacheKey(userID)).Result(); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	codes, err := s.ListUserQRCodes(ctx, userID)
	if err != nil {
		return nil, err
	}

	qrIDs := make([]string, 0, len(codes))
	for _, code := range codes {
		qrIDs = append(qrIDs, code.QrID)
	}

	if s.redis != nil && len(qrIDs) > 0 {
		key := ownershipCacheKey(userID)
		members := make([]any, len(qrIDs))
		for i, id := range qrIDs {
			members[i] = id
		}
		if err := s.redis.SAdd(ctx, key, members...).Err(); err == nil {
			s.redis.Expire(ctx, key, ownershipCacheTTL)
		} else {
			log.Printf("[QR] Failed to cache ownership for user %s: %v", userID, err)
		}
	}
	return qrIDs, nil
}

func (s *QRService) invalidateOwnership(ctx context.Context, userID string) {
	if s.redis == nil || userID == "" {
		return
	}
	if err := s.redis.Del(ctx, ownershipCacheKey(userID)).Err(); err != nil {
		log.Printf("[QR] Failed to invalidate ownership cache for user %s: %v", userID, err)
	}
}
