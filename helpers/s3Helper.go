package helpers

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const videoURLExpiry = 15 * time.Minute

type SpacesConfig struct {
	Key      string
	Secret   string
	Endpoint string
	Region   string
	Bucket   string
}

// VideoSigner hands out time-limited download links for exercise videos kept
// in a private bucket (DigitalOcean Spaces or any S3-compatible store).
type VideoSigner struct {
	presigner *s3.PresignClient
	bucket    string
}

func NewVideoSigner(ctx context.Context, cfg SpacesConfig) (*VideoSigner, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("spaces bucket is empty")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	s3Cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.Key, cfg.Secret, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(s3Cfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &VideoSigner{presigner: s3.NewPresignClient(client), bucket: cfg.Bucket}, nil
}

func (v *VideoSigner) PresignVideo(ctx context.Context, key string) (string, error) {
	req, err := v.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(videoURLExpiry))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}
