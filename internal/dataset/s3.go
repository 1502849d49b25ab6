package dataset

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectGetter is the slice of the S3 API the source needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewS3Client loads the default AWS chain (env, shared config, IMDS). A
// non-empty endpoint switches to path-style addressing for MinIO and friends.
func NewS3Client(ctx context.Context, region, endpoint string) (*s3.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

type S3Source struct {
	client ObjectGetter
	bucket string
	key    string
	sheet  string
}

func NewS3Source(client ObjectGetter, bucket, key, sheet string) *S3Source {
	return &S3Source{client: client, bucket: bucket, key: key, sheet: sheet}
}

func (s *S3Source) Identity() string { return "s3://" + s.bucket + "/" + s.key + "#" + s.sheet }

func (s *S3Source) Sheet() string { return s.sheet }

func (s *S3Source) Fetch(ctx context.Context) (RawTable, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return RawTable{}, fmt.Errorf("%w: get s3://%s/%s: %w", ErrSourceUnreadable, s.bucket, s.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return RawTable{}, fmt.Errorf("%w: read s3://%s/%s: %w", ErrSourceUnreadable, s.bucket, s.key, err)
	}
	return Parse(path.Base(s.key), data, s.sheet)
}
