package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BucketName holds every protected object.
const BucketName = "shadow-files"

var MinioClient *minio.Client

func InitMinio() {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9000" // Default fallback
	}

	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	if accessKey == "" {
		accessKey = "minioadmin" // Default fallback
	}

	secretKey := os.Getenv("MINIO_SECRET_KEY")
	if secretKey == "" {
		secretKey = "minioadmin" // Default fallback
	}

	useSSL := false // Set to true if using HTTPS

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})

	if err != nil {
		log.Fatalf("Failed to connect to MinIO: %v", err)
	}

	// Create a context with timeout for operations
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Create the bucket if it doesn't exist
	exists, err := client.BucketExists(ctx, BucketName)
	if err != nil {
		log.Printf("Warning: Failed to check bucket existence: %v", err)
	} else if !exists {
		err = client.MakeBucket(ctx, BucketName, minio.MakeBucketOptions{})
		if err != nil {
			log.Printf("Warning: Failed to create bucket: %v", err)
		} else {
			log.Printf("Created bucket: %s", BucketName)
		}
	}

	MinioClient = client
	fmt.Println("✅ Connected to MinIO")
}

// Objects adapts the MinIO client to the engine's object-store contract.
type Objects struct {
	bucket string
}

func NewObjects() *Objects {
	return &Objects{bucket: BucketName}
}

func (o *Objects) Put(ctx context.Context, objectName string, data []byte, contentType string) error {
	_, err := MinioClient.PutObject(
		ctx,
		o.bucket,
		objectName,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	return err
}

func (o *Objects) Remove(ctx context.Context, objectName string) error {
	return MinioClient.RemoveObject(ctx, o.bucket, objectName, minio.RemoveObjectOptions{})
}

// PresignedGet mints the short-lived content retrieval capability handed
// out on an Authorized decision.
func (o *Objects) PresignedGet(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	u, err := MinioClient.PresignedGetObject(ctx, o.bucket, objectName, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to generate download link: %w", err)
	}
	return u.String(), nil
}
