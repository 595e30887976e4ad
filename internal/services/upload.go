package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shadowshield/ShadowShield/internal/models"
	"github.com/shadowshield/ShadowShield/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UploadService is the ingest-complete boundary: once the bytes are in, it
// seals a ProtectedFile with its content hash and attaches the declared
// policy alongside it.
type UploadService struct {
	store    store.Store
	objects  ObjectStore
	policies *PolicyService
	now      func() time.Time
}

func NewUploadService(st store.Store, objects ObjectStore, policies *PolicyService) *UploadService {
	return &UploadService{store: st, objects: objects, policies: policies, now: time.Now}
}

// Seal stores the content and creates the file record with its policy.
// Object upload and metadata insert run in parallel, and a metadata
// failure cleans the uploaded object back up.
func (s *UploadService) Seal(ctx context.Context, owner, filename, contentType string, content []byte, policy *models.AccessPolicy) (models.ProtectedFile, error) {
	if err := s.policies.Validate(policy); err != nil {
		return models.ProtectedFile{}, err
	}

	fileID := primitive.NewObjectID()
	objectName := fmt.Sprintf("%s_%s", fileID.Hex(), filename)
	hash := sha256.Sum256(content)

	fileData := models.ProtectedFile{
		ID:          fileID,
		Filename:    filename,
		ObjectName:  objectName,
		ContentHash: hex.EncodeToString(hash[:]),
		Owner:       owner,
		CreatedAt:   s.now(),
		Policy:      normalizePolicy(policy),
	}

	objectChan := make(chan error, 1)
	metadataChan := make(chan error, 1)

	go func() {
		objectChan <- s.objects.Put(ctx, objectName, content, contentType)
	}()
	go func() {
		metadataChan <- s.store.CreateFile(ctx, &fileData)
	}()

	objectErr := <-objectChan
	metadataErr := <-metadataChan

	if objectErr != nil {
		return models.ProtectedFile{}, fmt.Errorf("failed to store file content: %w", objectErr)
	}
	if metadataErr != nil {
		go func() {
			_ = s.objects.Remove(context.Background(), objectName)
		}()
		return models.ProtectedFile{}, fmt.Errorf("failed to save file metadata: %w", metadataErr)
	}

	return fileData, nil
}

// ListByOwner returns the owner's files with policy and destruction state.
func (s *UploadService) ListByOwner(ctx context.Context, owner string) ([]models.ProtectedFile, error) {
	return s.store.ListFilesByOwner(ctx, owner)
}

// Get loads one file record.
func (s *UploadService) Get(ctx context.Context, id primitive.ObjectID) (*models.ProtectedFile, error) {
	return s.store.GetFile(ctx, id)
}
