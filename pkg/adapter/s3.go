package adapter

import (
	"bytes"
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/m-mizutani/goerr/v2"
)

// S3 uploads exported archives to an S3-compatible bucket
type S3 interface {
	// Upload stores body under key and returns the object URL
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// S3Config holds connection settings. Endpoint is optional for AWS itself
// and required for other S3-compatible services.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

type s3Client struct {
	client   *s3.Client
	bucket   string
	endpoint string
}

// NewS3 creates a client using static credentials and path-style addressing
func NewS3(cfg S3Config) (S3, error) {
	if cfg.Bucket == "" {
		return nil, goerr.New("s3 bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, goerr.New("s3 access key and secret key are required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
	} else {
		endpoint = "https://s3." + cfg.Region + ".amazonaws.com"
	}

	return &s3Client{
		client:   s3.New(opts),
		bucket:   cfg.Bucket,
		endpoint: endpoint,
	}, nil
}

func (c *s3Client) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to upload object",
			goerr.V("bucket", c.bucket), goerr.V("key", key))
	}
	return c.endpoint + "/" + c.bucket + "/" + key, nil
}
