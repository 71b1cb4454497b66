package cloud

import (
	"context"
	"fmt"
	nethttp "net/http"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	fdhttp "github.com/filedash/filedash/internal/http"
)

// S3Options configures the s3:// source.
type S3Options struct {
	Region    string
	Endpoint  string // S3-compatible endpoint; enables path-style addressing
	AccessKey string
	SecretKey string
}

// S3Source reads s3://bucket/key objects. The SDK client is built on first
// use so commands that never touch S3 skip credential discovery.
type S3Source struct {
	opts       S3Options
	httpClient *nethttp.Client
	retry      fdhttp.Config

	once    sync.Once
	client  *s3.Client
	initErr error
}

func NewS3Source(opts S3Options, httpClient *nethttp.Client) *S3Source {
	return &S3Source{opts: opts, httpClient: httpClient, retry: fdhttp.DefaultConfig()}
}

func (s *S3Source) init(ctx context.Context) error {
	s.once.Do(func() {
		loadOpts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(s.opts.Region),
			awsconfig.WithHTTPClient(s.httpClient),
		}
		if s.opts.AccessKey != "" {
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(s.opts.AccessKey, s.opts.SecretKey, "")))
		}

		cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			s.initErr = fmt.Errorf("failed to load AWS config: %w", err)
			return
		}
		s.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			if s.opts.Endpoint != "" {
				o.BaseEndpoint = aws.String(s.opts.Endpoint)
				o.UsePathStyle = true
			}
		})
	})
	return s.initErr
}

func (s *S3Source) Open(ctx context.Context, rawURL string) (*Object, error) {
	loc, err := ParseObjectURL(rawURL)
	if err != nil {
		return nil, err
	}
	if err := s.init(ctx); err != nil {
		return nil, err
	}

	var resp *s3.GetObjectOutput
	err = fdhttp.ExecuteWithRetry(ctx, s.retry, func() error {
		r, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(loc.Container),
			Key:    aws.String(loc.Key),
		})
		resp = r
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3 object %s: %w", rawURL, err)
	}
	return &Object{Body: resp.Body, Size: sizeOrUnknown(resp.ContentLength), ContentType: derefString(resp.ContentType)}, nil
}
