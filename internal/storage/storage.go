// Package storage wraps the S3 bucket that holds scrapbook media: signed
// GET/PUT URLs for browsers and key listing for the read-only store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	DefaultRegion = "us-west-1"
	GetTTL        = 10 * time.Minute
	PutTTL        = 60 * time.Second
)

// ErrNotConfigured is returned when no bucket is set.
var ErrNotConfigured = errors.New("object storage not configured")

// Options selects the bucket and credentials. Empty credentials fall back
// to the SDK's default chain; a custom endpoint switches to path-style
// addressing for S3-compatible stores.
type Options struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
}

// Configured reports whether a bucket has been named.
func (o Options) Configured() bool { return o.Bucket != "" }

// Object is one listed key.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Presigner issues time-limited URLs for single objects.
type Presigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
}

// Lister enumerates objects under a prefix.
type Lister interface {
	List(ctx context.Context, prefix string) ([]Object, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignPutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Bucket is the S3-backed Presigner and Lister.
type Bucket struct {
	name    string
	list    s3.ListObjectsV2APIClient
	presign presignAPI
}

// New builds a client for o.
func New(ctx context.Context, o Options) (*Bucket, error) {
	if !o.Configured() {
		return nil, ErrNotConfigured
	}
	region := o.Region
	if region == "" {
		region = DefaultRegion
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if o.AccessKeyID != "" && o.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKeyID, o.SecretAccessKey, "")))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
			so.UsePathStyle = true
		}
	})
	return &Bucket{name: o.Bucket, list: client, presign: s3.NewPresignClient(client)}, nil
}

// Name is the bucket name.
func (b *Bucket) Name() string { return b.name }

// PresignGet returns a read URL for key valid for ttl.
func (b *Bucket) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", errors.New("presign get: missing key")
	}
	req, err := b.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}
	return req.URL, nil
}

// PresignPut returns a write URL for key bound to contentType, valid for ttl.
func (b *Bucket) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", errors.New("presign put: missing key")
	}
	req, err := b.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.name),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, err)
	}
	return req.URL, nil
}

// List pages through every object under prefix. Folder placeholder keys
// ending in "/" are skipped.
func (b *Bucket) List(ctx context.Context, prefix string) ([]Object, error) {
	p := s3.NewListObjectsV2Paginator(b.list, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.name),
		Prefix: aws.String(prefix),
	})

	var out []Object
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", b.name, prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			out = append(out, Object{
				Key:          key,
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return out, nil
}

var whitespace = regexp.MustCompile(`\s+`)

// UploadKey names a new upload: prefix/unixMillis-name with whitespace
// runs in name collapsed to "_".
func UploadKey(prefix string, now time.Time, fileName string) string {
	name := whitespace.ReplaceAllString(fileName, "_")
	stamp := strconv.FormatInt(now.UnixMilli(), 10)
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return stamp + "-" + name
	}
	return prefix + "/" + stamp + "-" + name
}

// Resolver adapts a Presigner to media.Resolver, signing GETs for TTL.
type Resolver struct {
	Presigner Presigner
	TTL       time.Duration
}

// Resolve implements media.Resolver.
func (r Resolver) Resolve(ctx context.Context, key string) (string, error) {
	if r.Presigner == nil {
		return "", ErrNotConfigured
	}
	ttl := r.TTL
	if ttl <= 0 {
		ttl = GetTTL
	}
	return r.Presigner.PresignGet(ctx, key, ttl)
}
