// Package artifacts moves run artifacts between the code bucket and the local
// staging tree. Object key and local path share one shape:
// {runId}/{name}.{extension}, the latter rooted at the staging directory.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/animus-labs/runworker/internal/domain"
	"github.com/minio/minio-go/v7"
)

var (
	ErrTransfer       = errors.New("artifact_transfer_failed")
	ErrObjectNotFound = errors.New("artifact_not_found")
)

// ObjectClient is the part of *minio.Client used here.
type ObjectClient interface {
	FGetObject(ctx context.Context, bucket, object, filePath string, opts minio.GetObjectOptions) error
	FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Client struct {
	objects     ObjectClient
	bucket      string
	stagingRoot string
}

// NewClient requires an absolute staging root so that the staged file and
// the file handed to the executor are the same path.
func NewClient(objects ObjectClient, bucket, stagingRoot string) (*Client, error) {
	if objects == nil {
		return nil, errors.New("object client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("bucket is required")
	}
	if !filepath.IsAbs(stagingRoot) {
		return nil, fmt.Errorf("staging root must be absolute: %q", stagingRoot)
	}
	return &Client{objects: objects, bucket: bucket, stagingRoot: filepath.Clean(stagingRoot)}, nil
}

func (c *Client) Bucket() string {
	return c.bucket
}

func (c *Client) RunDir(runID string) string {
	return filepath.Join(c.stagingRoot, runID)
}

func (c *Client) LocalPath(ref domain.ArtifactRef) string {
	return filepath.Join(c.RunDir(ref.RunID), ref.FileName())
}

// Download fetches the object into the staging tree, replacing any file
// already there.
func (c *Client) Download(ctx context.Context, ref domain.ArtifactRef) (string, error) {
	key := ref.ObjectKey()
	local := c.LocalPath(ref)
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return local, fmt.Errorf("%w: create staging dir: %v", ErrTransfer, err)
	}
	if err := c.objects.FGetObject(ctx, c.bucket, key, local, minio.GetObjectOptions{}); err != nil {
		return local, transferError("download", c.bucket, key, err)
	}
	return local, nil
}

func (c *Client) Upload(ctx context.Context, ref domain.ArtifactRef) error {
	key := ref.ObjectKey()
	local := c.LocalPath(ref)
	if _, err := c.objects.FPutObject(ctx, c.bucket, key, local, minio.PutObjectOptions{}); err != nil {
		return transferError("upload", c.bucket, key, err)
	}
	return nil
}

// RemoveRunDir deletes the staging directory of a run.
func (c *Client) RemoveRunDir(runID string) error {
	dir := c.RunDir(runID)
	if filepath.Dir(dir) != c.stagingRoot {
		return fmt.Errorf("refusing to remove %q outside staging root", dir)
	}
	return os.RemoveAll(dir)
}

func transferError(op, bucket, key string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey" || errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w: %s %s/%s: %v", ErrTransfer, ErrObjectNotFound, op, bucket, key, err)
	}
	return fmt.Errorf("%w: %s %s/%s: %v", ErrTransfer, op, bucket, key, err)
}
