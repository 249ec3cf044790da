package file_store

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/Luismorlan/mediamux/app_config"
	Logger "github.com/Luismorlan/mediamux/utils/log"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
)

// S3FileStore stores media in an S3 compatible bucket. Endpoint is set for
// non-AWS providers exposing the S3 protocol.
type S3FileStore struct {
	bucket   string
	baseUrl  string
	endpoint string
	uploader *s3manager.Uploader
	svc      *s3.S3
}

func NewS3FileStore(cfg app_config.StorageConfig) (*S3FileStore, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKeyId != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyId, cfg.SecretAccessKey, "")
	}

	// AWS client session
	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, errors.Wrap(err, "fail to create storage session")
	}

	return &S3FileStore{
		bucket:   cfg.Bucket,
		baseUrl:  cfg.BaseUrl,
		endpoint: cfg.Endpoint,
		uploader: s3manager.NewUploader(sess),
		svc:      s3.New(sess),
	}, nil
}

// If key existed, return ErrObjectExists without updating the file
func (s *S3FileStore) Store(ctx context.Context, key string, data []byte, contentType string) error {
	existed, err := s.IsKeyExisted(ctx, key)
	if err != nil {
		return err
	}
	if existed {
		return ErrObjectExists
	}

	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return errors.Wrapf(err, "fail to upload %s", key)
	}
	return nil
}

func (s *S3FileStore) Fetch(ctx context.Context, key string) ([]byte, string, error) {
	out, err := s.svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, "", ErrObjectNotFound
		}
		return nil, "", errors.Wrapf(err, "fail to fetch %s", key)
	}
	defer out.Body.Close()
	data, err := ioutil.ReadAll(out.Body)
	if err != nil {
		return nil, "", err
	}
	return data, aws.StringValue(out.ContentType), nil
}

func (s *S3FileStore) Delete(ctx context.Context, key string) error {
	_, err := s.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return errors.Wrapf(err, "fail to delete %s", key)
	}
	return nil
}

func (s *S3FileStore) IsKeyExisted(ctx context.Context, key string) (bool, error) {
	_, err := s.svc.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	Logger.Log.Warn("fail to check object existence, key: ", key, " err: ", err)
	return false, errors.Wrapf(err, "fail to check %s", key)
}

func (s *S3FileStore) GetUrlFromKey(key string) string {
	if s.endpoint == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, escapeKey(key))
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.endpoint, "/"), s.bucket, escapeKey(key))
}

func (s *S3FileStore) GetPublicUrlFromKey(key string) string {
	return PublicObjectUrl(s.baseUrl, s.bucket, key)
}

func (s *S3FileStore) KeyFromUrl(publicUrl string) (string, bool) {
	return KeyFromPublicUrl(publicUrl, s.bucket)
}

func isNotFound(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
