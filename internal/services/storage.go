package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/fleetline/fleetline-backend/internal/models"
)

// MessageArchive writes batches of purged chat messages to S3 before the
// sweep deletes them. Entirely optional: without AWS configuration the
// archive is disabled and the sweep deletes without archiving.
type MessageArchive struct {
	uploader *s3manager.Uploader
	bucket   string
}

// NewMessageArchive initializes the archive from the environment
func NewMessageArchive() (*MessageArchive, error) {
	awsRegion := os.Getenv("AWS_REGION")
	awsAccessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	awsSecretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	bucket := os.Getenv("CHAT_ARCHIVE_BUCKET")

	if awsRegion == "" || awsAccessKey == "" || awsSecretKey == "" || bucket == "" {
		log.Println("Warning: chat archive not configured. Purged messages will not be archived.")
		return nil, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(awsRegion),
		Credentials: credentials.NewStaticCredentials(
			awsAccessKey,
			awsSecretKey,
			"", // Token (optional)
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %v", err)
	}

	log.Printf("Chat archive initialized (bucket %s)", bucket)
	return &MessageArchive{
		uploader: s3manager.NewUploader(sess),
		bucket:   bucket,
	}, nil
}

// Enabled reports whether the archive sink is configured
func (a *MessageArchive) Enabled() bool {
	return a != nil && a.uploader != nil
}

// ArchiveMessages uploads one JSON object per batch under a date-partitioned
// key.
func (a *MessageArchive) ArchiveMessages(ctx context.Context, messages []models.Message) error {
	if !a.Enabled() {
		return nil
	}

	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal archive batch: %v", err)
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("chat-archive/%s/%d.json", now.Format("2006-01-02"), now.UnixNano())

	_, err = a.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload archive batch: %v", err)
	}

	log.Printf("Archived %d purged messages to %s", len(messages), key)
	return nil
}
