package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

const s3Scheme = "s3://"

// S3Options configures an S3-compatible bucket.
type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string // empty for AWS; set for MinIO and friends
	AccessKey string
	SecretKey string
	Prefix    string
	UseSSL    bool
}

// S3 stores uploads as objects under a key prefix in one bucket.
type S3 struct {
	client s3iface.S3API
	bucket string
	prefix string
}

// NewS3 opens a session for opts. Static credentials are used when an access
// key is given, otherwise the default AWS credential chain applies.
func NewS3(opts S3Options) (*S3, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 store: bucket is empty")
	}

	cfg := &aws.Config{
		Region:     aws.String(opts.Region),
		DisableSSL: aws.Bool(!opts.UseSSL),
	}
	if opts.Endpoint != "" {
		cfg.Endpoint = aws.String(opts.Endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	if opts.AccessKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(opts.AccessKey, opts.SecretKey, "")
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("s3 store: new session: %w", err)
	}

	return NewS3WithClient(s3.New(sess), opts.Bucket, opts.Prefix), nil
}

// NewS3WithClient wraps an existing client.
func NewS3WithClient(client s3iface.S3API, bucket, prefix string) *S3 {
	return &S3{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Store uploads r as a new object. The locator is s3://bucket/key.
func (s *S3) Store(ctx context.Context, originalName string, r io.Reader) (Object, error) {
	key := path.Join(s.prefix, StorageName(originalName))

	body, size, err := seekable(ctx, r)
	if err != nil {
		return Object{}, fmt.Errorf("read %s: %w", key, err)
	}

	// PutObject is all-or-nothing, so a failed upload leaves no object behind.
	if _, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}); err != nil {
		return Object{}, fmt.Errorf("put %s: %w", key, err)
	}

	return Object{
		FileName: DisplayName(originalName),
		Key:      key,
		Locator:  s3Scheme + s.bucket + "/" + key,
		Size:     size,
	}, nil
}

// Delete removes the object at locator. It reports false when the object
// does not exist or the locator names another bucket or prefix.
func (s *S3) Delete(ctx context.Context, locator string) (bool, error) {
	key, ok := s.owned(locator)
	if !ok {
		return false, nil
	}

	_, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("head %s: %w", key, err)
	}

	if _, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return false, fmt.Errorf("delete %s: %w", key, err)
	}
	return true, nil
}

func (s *S3) owned(locator string) (string, bool) {
	rest, ok := strings.CutPrefix(locator, s3Scheme+s.bucket+"/")
	if !ok || rest == "" {
		return "", false
	}

	dir, name := path.Split(rest)
	if name == "" || strings.Trim(dir, "/") != s.prefix {
		return "", false
	}
	return rest, true
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	switch aerr.Code() {
	case "NotFound", s3.ErrCodeNoSuchKey:
		return true
	}
	return false
}

// seekable returns r as an io.ReadSeeker with its remaining length. Readers
// that cannot seek are buffered; upload size caps bound the buffer.
func seekable(ctx context.Context, r io.Reader) (io.ReadSeeker, int64, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		cur, err := rs.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, 0, err
		}
		end, err := rs.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, err
		}
		if _, err := rs.Seek(cur, io.SeekStart); err != nil {
			return nil, 0, err
		}
		return rs, end - cur, nil
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, ctxReader{ctx: ctx, r: r}); err != nil {
		return nil, 0, err
	}
	return bytes.NewReader(buf.Bytes()), int64(buf.Len()), nil
}
