// s3.go — Mirror finished mockups to an S3 bucket.
package publish

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// putObjectAPI is the part of *s3.Client the publisher needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 uploads each mockup to Bucket under Prefix. The local file stays in the
// temporary-output area and is swept as usual.
type S3 struct {
	client    putObjectAPI
	bucket    string
	prefix    string
	publicURL string
	region    string
}

// NewS3 creates an S3 publisher using the default AWS credential chain.
// publicURL, when set, replaces the virtual-hosted bucket URL in results
// (e.g. a CDN in front of the bucket).
func NewS3(ctx context.Context, bucket, prefix, publicURL string) (*S3, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &S3{
		client:    s3.NewFromConfig(cfg),
		bucket:    bucket,
		prefix:    prefix,
		publicURL: publicURL,
		region:    cfg.Region,
	}, nil
}

func (s *S3) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *S3) Publish(ctx context.Context, filePath, name string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", filePath, err)
	}
	defer f.Close()

	key := s.key(name)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload mockup %s: %w", key, err)
	}

	logrus.WithFields(logrus.Fields{"bucket": s.bucket, "key": key}).Debug("Mockup uploaded")
	return s.url(key), nil
}

func (s *S3) url(key string) string {
	if s.publicURL != "" {
		return joinURL(s.publicURL, key)
	}
	host := s.bucket + ".s3.amazonaws.com"
	if s.region != "" {
		host = s.bucket + ".s3." + s.region + ".amazonaws.com"
	}
	return "https://" + host + "/" + key
}
