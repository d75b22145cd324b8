package artifact

import (
	"bytes"
	"context"
	"mime"
	"path"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Store uploads artifacts under "<runID>/<path>" in one bucket.
type S3Store struct {
	client     *minio.Client
	bucketName string
	region     string
	runID      string
	initOnce   sync.Once
	initErr    error
}

func NewS3Store(cfg S3Config, runID string) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("artifact: s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, errors.WithHint(errors.New("artifact: s3 access key and secret key are required"),
			"set COMPONENTGEN_S3_ACCESS_KEY and COMPONENTGEN_S3_SECRET_KEY")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("artifact: s3 bucket is required")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, errors.New("artifact: run id is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "artifact: init s3 client")
	}
	return &S3Store{client: client, bucketName: bucket, region: region, runID: runID}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

func (s *S3Store) Put(ctx context.Context, p string, content []byte) error {
	key, err := cleanKey(p)
	if err != nil {
		return err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return errors.Wrap(err, "artifact: ensure bucket")
	}
	_, err = s.client.PutObject(ctx, s.bucketName, s.objectKey(key), bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType(key)})
	return errors.Wrapf(err, "artifact: put %s", key)
}

func (s *S3Store) objectKey(key string) string {
	return s.runID + "/" + key
}

func contentType(key string) string {
	switch path.Ext(key) {
	case ".ts":
		return "text/plain; charset=utf-8"
	case ".md":
		return "text/markdown; charset=utf-8"
	}
	if t := mime.TypeByExtension(path.Ext(key)); t != "" {
		return t
	}
	return "application/octet-stream"
}
