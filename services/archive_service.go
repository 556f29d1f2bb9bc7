package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appConfig "github.com/Phabs974/ListePCMontage/config"
)

// ArchiveInterface defines the interface for invoice archive operations
type ArchiveInterface interface {
	Store(ctx context.Context, key string, content []byte) error
}

// S3Archive keeps a copy of every imported invoice PDF in S3
type S3Archive struct {
	client *s3.Client
	bucket string
}

var archiveInstance ArchiveInterface

// InitArchive initializes the invoice archive from the AWS configuration.
// Returns nil when no bucket is configured: archiving is optional and the
// import flow must work without it.
func InitArchive() (ArchiveInterface, error) {
	cfg := appConfig.GetConfig()
	if cfg.AWSS3Bucket == "" {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.AWSRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccess,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	archiveInstance = &S3Archive{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.AWSS3Bucket,
	}
	return archiveInstance, nil
}

// GetArchive returns the initialized archive instance (nil when disabled)
func GetArchive() ArchiveInterface {
	return archiveInstance
}

// SetArchive sets the archive instance (primarily for testing)
func SetArchive(archive ArchiveInterface) {
	archiveInstance = archive
}

// Store uploads an invoice PDF under the given key
func (a *S3Archive) Store(ctx context.Context, key string, content []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}
