package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// OSSProvider implements Provider for Aliyun OSS.
type OSSProvider struct {
	bucket *oss.Bucket
	prefix string
}

// NewOSSProvider creates a provider reading from the given bucket.
// Endpoint example: oss-cn-hangzhou.aliyuncs.com. An optional prefix is
// prepended to every object name.
func NewOSSProvider(endpoint, accessKeyID, accessKeySecret, bucketName, prefix string) (*OSSProvider, error) {
	client, err := oss.New(endpoint, accessKeyID, accessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("storage: create OSS client: %w", err)
	}

	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("storage: get bucket %s: %w", bucketName, err)
	}

	return &OSSProvider{
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

// Get downloads the named object.
func (p *OSSProvider) Get(_ context.Context, name string) ([]byte, error) {
	body, err := p.bucket.GetObject(p.key(name))
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: get object %s: %w", name, err)
	}
	defer body.Close()

	return io.ReadAll(body)
}

// Exists checks object presence without downloading it.
func (p *OSSProvider) Exists(_ context.Context, name string) (bool, error) {
	ok, err := p.bucket.IsObjectExist(p.key(name))
	if err != nil {
		return false, fmt.Errorf("storage: head object %s: %w", name, err)
	}
	return ok, nil
}

func (p *OSSProvider) Name() string { return "oss" }

// key joins the configured prefix with the object name.
func (p *OSSProvider) key(name string) string {
	name = strings.TrimPrefix(name, "/")
	if p.prefix == "" {
		return name
	}
	return p.prefix + "/" + name
}

// isNoSuchKey recognizes the OSS missing-object error.
func isNoSuchKey(err error) bool {
	var svcErr oss.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Code == "NoSuchKey"
	}
	return false
}
