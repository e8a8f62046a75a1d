package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// BlobStoreProvider persists raw image bytes externally and returns a
// fetchable URL. No retry happens inside; callers decide. Repeated stores of
// identical bytes produce distinct URLs, keys are never content-addressed.
type BlobStoreProvider interface {
	Store(ctx context.Context, content []byte, mimeType string, folder string) (string, error)
	StoreFromURL(ctx context.Context, sourceURL string, folder string) (string, error)
}

// R2Service uploads blobs to Cloudflare R2 through presigned S3 requests.
type R2Service struct {
	S3PresignClient *s3.PresignClient
	BucketName      string
	HTTPClient      *http.Client
	URLCache        URLCacheServiceProvider
}

func NewR2Service(cfg *Config) (*R2Service, error) {
	r2Resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID),
		}, nil
	})
	awsCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(r2Resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2AccessKeySecret, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	svc := &R2Service{
		S3PresignClient: s3.NewPresignClient(s3.NewFromConfig(awsCfg)),
		BucketName:      cfg.R2BucketName,
		HTTPClient:      &http.Client{},
	}
	urlCache, err := NewURLCacheService(svc, cfg.R2BucketName)
	if err != nil {
		return nil, err
	}
	svc.URLCache = urlCache
	return svc, nil
}

// Store uploads the content under a fresh object key and returns a read URL
// for it.
func (svc *R2Service) Store(ctx context.Context, content []byte, mimeType string, folder string) (string, error) {
	if !AllowedImageMimeTypes[mimeType] {
		return "", &StorageError{Err: fmt.Errorf("unsupported file type: %s", mimeType)}
	}

	objectKey := fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), ExtensionForMime(mimeType))
	putRequest, err := svc.S3PresignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(svc.BucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return "", &StorageError{Err: fmt.Errorf("failed to presign upload for %s: %w", objectKey, err)}
	}

	req, err := http.NewRequestWithContext(ctx, "PUT", putRequest.URL, bytes.NewReader(content))
	if err != nil {
		return "", &StorageError{Err: err}
	}
	req.Header.Set("Content-Type", mimeType)

	resp, err := svc.HTTPClient.Do(req)
	if err != nil {
		return "", &StorageError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return "", &StorageError{Err: fmt.Errorf("upload of %s got status %d: %s", objectKey, resp.StatusCode, string(body))}
	}

	readURL, err := svc.URLCache.GetReadURL(ctx, objectKey)
	if err != nil || readURL == "" {
		return "", &StorageError{Err: fmt.Errorf("no usable read URL for %s: %v", objectKey, err)}
	}
	return readURL, nil
}

// StoreFromURL re-persists a remote image, typically a provider result URL
// that would otherwise expire.
func (svc *R2Service) StoreFromURL(ctx context.Context, sourceURL string, folder string) (string, error) {
	content, err := ReadFileFromUrl(sourceURL)
	if err != nil {
		return "", &StorageError{Err: err}
	}
	return svc.Store(ctx, content, http.DetectContentType(content), folder)
}

// PresignReadURL issues a presigned GET for an already stored object.
func (svc *R2Service) PresignReadURL(ctx context.Context, objectKey string) (string, error) {
	getRequest, err := svc.S3PresignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(svc.BucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign request: %v", err)
	}
	return getRequest.URL, nil
}
