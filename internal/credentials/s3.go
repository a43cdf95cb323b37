package credentials

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// deleteBatchSize is the DeleteObjects per-request limit.
const deleteBatchSize = 1000

// S3Client is the subset of the S3 API used by S3Store.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Config describes the bucket holding the credentials.
type S3Config struct {
	Bucket         string `env:"CREDENTIALS_S3_BUCKET"`
	Prefix         string `env:"CREDENTIALS_S3_PREFIX" envDefault:"wagate/auth/"`
	Region         string `env:"CREDENTIALS_S3_REGION" envDefault:"us-east-1"`
	AccessKeyID    string `env:"CREDENTIALS_S3_ACCESS_KEY_ID"`
	SecretKey      string `env:"CREDENTIALS_S3_SECRET_KEY"`
	Endpoint       string `env:"CREDENTIALS_S3_ENDPOINT"`
	ForcePathStyle bool   `env:"CREDENTIALS_S3_FORCE_PATH_STYLE" envDefault:"false"`
}

// S3Option configures NewS3Store.
type S3Option func(*s3Options)

type s3Options struct {
	client        S3Client
	configOptions []func(*awsconfig.LoadOptions) error
}

// WithS3Client uses a pre-configured client instead of building one.
func WithS3Client(client S3Client) S3Option {
	return func(o *s3Options) {
		o.client = client
	}
}

// WithS3ConfigOption adds an option to the AWS config loader.
func WithS3ConfigOption(option func(*awsconfig.LoadOptions) error) S3Option {
	return func(o *s3Options) {
		o.configOptions = append(o.configOptions, option)
	}
}

// S3Store keeps one object per credential entry under a key prefix.
type S3Store struct {
	client S3Client
	bucket string
	prefix string
}

// NewS3Store returns a store for cfg.Bucket. Without WithS3Client the
// client is built from the default AWS config chain, overridden by the
// static keys and endpoint of cfg when set.
func NewS3Store(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: s3 bucket is required", ErrInvalidConfig)
	}

	o := &s3Options{}
	for _, opt := range opts {
		opt(o)
	}

	client := o.client
	if client == nil {
		loadOpts := []func(*awsconfig.LoadOptions) error{}
		if cfg.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
		}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
				awscreds.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
			))
		}
		loadOpts = append(loadOpts, o.configOptions...)

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}

		client = s3.NewFromConfig(awsCfg, func(so *s3.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
		})
	}

	prefix := strings.TrimLeft(cfg.Prefix, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &S3Store{client: client, bucket: cfg.Bucket, prefix: prefix}, nil
}

func (s *S3Store) Load(ctx context.Context) (Bundle, error) {
	keys, err := s.list(ctx)
	if err != nil {
		return nil, errors.Join(ErrLoadFailed, err)
	}

	out := make(Bundle, len(keys))
	for _, objKey := range keys {
		rel := strings.TrimPrefix(objKey, s.prefix)
		if strings.Contains(rel, "/") {
			continue
		}
		name, err := decodeKey(rel)
		if err != nil {
			continue
		}

		data, err := s.get(ctx, objKey)
		if isNotFound(err) {
			continue
		}
		if err != nil {
			return nil, errors.Join(ErrLoadFailed, err)
		}
		out[name] = data
	}
	return out, nil
}

func (s *S3Store) Save(ctx context.Context, update Bundle) error {
	if err := validateBundle(update); err != nil {
		return err
	}

	set, del := split(update)
	for name, value := range set {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(s.objectKey(name)),
			Body:          bytes.NewReader(value),
			ContentLength: aws.Int64(int64(len(value))),
			ContentType:   aws.String("application/octet-stream"),
		})
		if err != nil {
			return errors.Join(ErrSaveFailed, err)
		}
	}

	if len(del) > 0 {
		keys := make([]string, 0, len(del))
		for _, name := range del {
			keys = append(keys, s.objectKey(name))
		}
		if err := s.deleteKeys(ctx, keys); err != nil {
			return errors.Join(ErrSaveFailed, err)
		}
	}
	return nil
}

func (s *S3Store) Clear(ctx context.Context) error {
	keys, err := s.list(ctx)
	if err != nil {
		return errors.Join(ErrClearFailed, err)
	}
	if err := s.deleteKeys(ctx, keys); err != nil {
		return errors.Join(ErrClearFailed, err)
	}
	return nil
}

func (s *S3Store) objectKey(name string) string {
	return s.prefix + encodeKey(name)
}

func (s *S3Store) list(ctx context.Context) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}
	return keys, nil
}

func (s *S3Store) get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *S3Store) deleteKeys(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(keys))

		objects := make([]types.ObjectIdentifier, 0, end-start)
		for _, key := range keys[start:end] {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
		}

		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return err
		}
		if out != nil && len(out.Errors) > 0 {
			e := out.Errors[0]
			return fmt.Errorf("delete %s: %s", aws.ToString(e.Key), aws.ToString(e.Message))
		}
	}
	return nil
}

// isNotFound reports whether err is the S3 "object does not exist" error.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
