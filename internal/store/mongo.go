package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shadowshield/ShadowShield/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is the durable Store implementation. The atomic transitions
// (consume, destroy, attempt counter) ride on FindOneAndUpdate with state
// filters so concurrent callers can never both win.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) files() *mongo.Collection       { return s.db.Collection("files") }
func (s *MongoStore) credentials() *mongo.Collection { return s.db.Collection("credentials") }
func (s *MongoStore) events() *mongo.Collection      { return s.db.Collection("security_events") }
func (s *MongoStore) counters() *mongo.Collection    { return s.db.Collection("counters") }

// --- FileStore ---

func (s *MongoStore) CreateFile(ctx context.Context, file *models.ProtectedFile) error {
	_, err := s.files().InsertOne(ctx, file)
	return err
}

func (s *MongoStore) GetFile(ctx context.Context, id primitive.ObjectID) (*models.ProtectedFile, error) {
	var file models.ProtectedFile
	err := s.files().FindOne(ctx, bson.M{"_id": id}).Decode(&file)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (s *MongoStore) ListFilesByOwner(ctx context.Context, owner string) ([]models.ProtectedFile, error) {
	cursor, err := s.files().Find(ctx, bson.M{"owner": owner})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer cursor.Close(ctx)

	var files []models.ProtectedFile
	if err := cursor.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("error decoding file metadata: %w", err)
	}
	return files, nil
}

func (s *MongoStore) ListExpiredFiles(ctx context.Context, now time.Time) ([]models.ProtectedFile, error) {
	filter := bson.M{
		"destroyed":         false,
		"policy.expires_at": bson.M{"$lt": now},
	}
	cursor, err := s.files().Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired files: %w", err)
	}
	defer cursor.Close(ctx)

	var files []models.ProtectedFile
	if err := cursor.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("error decoding file metadata: %w", err)
	}
	return files, nil
}

func (s *MongoStore) UpdatePolicy(ctx context.Context, id primitive.ObjectID, policy *models.AccessPolicy) error {
	res, err := s.files().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"policy": policy}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) FreezePolicy(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.files().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"policy.frozen": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) IncrementFailedAttempts(ctx context.Context, id primitive.ObjectID) (int, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var file models.ProtectedFile
	err := s.files().FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"failed_attempts": 1}},
		opts,
	).Decode(&file)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return file.FailedAttempts, nil
}

func (s *MongoStore) MarkDestroyed(ctx context.Context, id primitive.ObjectID, reason models.DestructionReason, at time.Time) (bool, error) {
	// The destroyed:false filter makes the first caller the only winner.
	res, err := s.files().UpdateOne(
		ctx,
		bson.M{"_id": id, "destroyed": false},
		bson.M{"$set": bson.M{
			"destroyed":      true,
			"destroyed_at":   at,
			"destroy_reason": reason,
		}},
	)
	if err != nil {
		return false, err
	}
	if res.ModifiedCount == 1 {
		return true, nil
	}
	// Already destroyed, or the file does not exist at all.
	n, err := s.files().CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, ErrNotFound
	}
	return false, nil
}

func (s *MongoStore) ClearContentHandle(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.files().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$unset": bson.M{"object_name": ""}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CountFiles(ctx context.Context, destroyed bool) (int64, error) {
	return s.files().CountDocuments(ctx, bson.M{"destroyed": destroyed})
}

// --- CredentialStore ---

func (s *MongoStore) CreateCredential(ctx context.Context, cred *models.AccessCredential) error {
	_, err := s.credentials().InsertOne(ctx, cred)
	return err
}

func (s *MongoStore) GetCredential(ctx context.Context, id string) (*models.AccessCredential, error) {
	var cred models.AccessCredential
	err := s.credentials().FindOne(ctx, bson.M{"_id": id}).Decode(&cred)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

func (s *MongoStore) ConsumeCredential(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := s.credentials().UpdateOne(
		ctx,
		bson.M{"_id": id, "state": models.CredentialActive, "consumed_at": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"state": models.CredentialConsumed, "consumed_at": at}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (s *MongoStore) RevokeCredential(ctx context.Context, id string) error {
	_, err := s.credentials().UpdateOne(
		ctx,
		bson.M{"_id": id, "state": models.CredentialActive},
		bson.M{"$set": bson.M{"state": models.CredentialRevoked}},
	)
	return err
}

func (s *MongoStore) RevokeFileCredentials(ctx context.Context, fileID primitive.ObjectID) error {
	_, err := s.credentials().UpdateMany(
		ctx,
		bson.M{"file_id": fileID, "state": models.CredentialActive},
		bson.M{"$set": bson.M{"state": models.CredentialRevoked}},
	)
	return err
}

// --- EventStore ---

// nextSeq hands out the canonical insertion order for log entries via an
// atomic counter document.
func (s *MongoStore) nextSeq(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc struct {
		Value int64 `bson:"value"`
	}
	err := s.counters().FindOneAndUpdate(
		ctx,
		bson.M{"_id": "security_events"},
		bson.M{"$inc": bson.M{"value": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Value, nil
}

func (s *MongoStore) AppendEvent(ctx context.Context, event *models.SecurityEvent) error {
	seq, err := s.nextSeq(ctx)
	if err != nil {
		return fmt.Errorf("failed to assign event sequence: %w", err)
	}
	event.Seq = seq
	if _, err := s.events().InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to append security event: %w", err)
	}
	return nil
}

func (s *MongoStore) QueryEvents(ctx context.Context, limit int, severity models.Severity) ([]models.SecurityEvent, error) {
	filter := bson.M{}
	if severity != "" {
		filter["severity"] = severity
	}
	opts := options.Find().SetSort(bson.M{"seq": -1})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cursor, err := s.events().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query security events: %w", err)
	}
	defer cursor.Close(ctx)

	events := make([]models.SecurityEvent, 0, limit)
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("error decoding security events: %w", err)
	}
	return events, nil
}

func (s *MongoStore) ClearEvents(ctx context.Context) error {
	_, err := s.events().DeleteMany(ctx, bson.M{})
	return err
}

func (s *MongoStore) CountEvents(ctx context.Context, severities ...models.Severity) (int64, error) {
	filter := bson.M{}
	if len(severities) > 0 {
		filter["severity"] = bson.M{"$in": severities}
	}
	return s.events().CountDocuments(ctx, filter)
}
