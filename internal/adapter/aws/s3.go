package aws

import (
	"context"
	"fmt"
	"io"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pscheid92/tweetpulse/internal/domain"
)

type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ domain.BlobReader = (*S3Reader)(nil)

type S3Reader struct {
	api s3API
}

// NewS3Reader uses path-style addressing when pathStyle is set, as endpoint
// overrides usually require.
func NewS3Reader(cfg awssdk.Config, pathStyle bool) *S3Reader {
	return newS3ReaderWithAPI(s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = pathStyle
	}))
}

func newS3ReaderWithAPI(api s3API) *S3Reader {
	return &S3Reader{api: api}
}

func (r *S3Reader) Read(ctx context.Context, bucket, key string) (string, error) {
	resp, err := r.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: awssdk.String(bucket),
		Key:    awssdk.String(key),
	})
	if err != nil {
		return "", translate(fmt.Sprintf("get object %s/%s", bucket, key), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body %s/%s: %w", bucket, key, err)
	}
	return string(data), nil
}
