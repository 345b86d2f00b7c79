package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/orgmesh/backend/internal/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewS3Client builds the S3 client from environment configuration. It
// returns nil when the configuration is unusable; callers treat a nil client
// as "avatars disabled".
func NewS3Client(ctx context.Context) *s3.Client {
	region := util.GetEnv("AWS_REGION")
	endpoint := util.GetEnv("AWS_ENDPOINT")
	accessKey := util.GetEnv("AWS_ACCESS_KEY")
	secretKey := util.GetEnv("AWS_SECRET_KEY")

	cfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithBaseEndpoint(endpoint),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey,
			secretKey,
			"",
		)),
	)
	if err != nil {
		return nil
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
}

// AvatarStore resolves stored avatar object keys to presigned download URLs.
type AvatarStore struct {
	presigner *s3.PresignClient
	bucket    string
	expiry    time.Duration
}

func NewAvatarStore(client *s3.Client) *AvatarStore {
	return &AvatarStore{
		presigner: s3.NewPresignClient(client),
		bucket:    util.GetEnv("AWS_BUCKET"),
		expiry:    15 * time.Minute,
	}
}

// DownloadURL presigns a GET for the given object key.
func (a *AvatarStore) DownloadURL(ctx context.Context, key string) (string, error) {
	req, err := a.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(a.expiry))
	if err != nil {
		return "", fmt.Errorf("presign avatar %s: %w", key, err)
	}
	return req.URL, nil
}
