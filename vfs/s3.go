package vfs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3FS exposes an object storage bucket as a virtual filesystem, used
// for remote asset roots shared between workstations. Directories are
// implicit in object key prefixes.
type S3FS struct {
	client *minio.Client
	bucket string
	prefix string
}

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string

	// Optional key prefix acting as the project root inside the bucket
	Prefix string

	UseSSL bool
}

func NewS3FS(cfg S3Config) (*S3FS, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	return &S3FS{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Resolve always fails: objects have no local physical path.
func (s *S3FS) Resolve(virtualPath string) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrNotResolvable, virtualPath)
}

func (s *S3FS) key(p string) string {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if s.prefix == "" {
		return p
	}
	if p == "" {
		return s.prefix
	}
	return s.prefix + "/" + p
}

func (s *S3FS) virtualPath(key string) string {
	if s.prefix != "" {
		key = strings.TrimPrefix(key, s.prefix)
	}
	return "/" + strings.Trim(key, "/")
}

func (s *S3FS) Exists(ctx context.Context, p string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, s.key(p), minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *S3FS) Stat(ctx context.Context, p string) (*FileInfo, error) {
	info, err := s.client.StatObject(ctx, s.bucket, s.key(p), minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, p)
		}
		return nil, err
	}

	virtual := s.virtualPath(info.Key)
	return &FileInfo{
		Path:    virtual,
		Name:    path.Base(virtual),
		Size:    info.Size,
		ModTime: info.LastModified,
		IsDir:   strings.HasSuffix(info.Key, "/"),
	}, nil
}

func (s *S3FS) ReadFile(ctx context.Context, p string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.bucket, s.key(p), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer object.Close()

	content, err := io.ReadAll(object)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, p)
		}
		return nil, err
	}

	return content, nil
}

func (s *S3FS) WriteFile(ctx context.Context, p string, content []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(p),
		bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{})
	return err
}

func (s *S3FS) Remove(ctx context.Context, p string) error {
	key := s.key(p)

	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return fmt.Errorf("%w: %s", ErrNotExist, p)
		}
		return err
	}

	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// Rename copies then deletes; object storage has no native move.
func (s *S3FS) Rename(ctx context.Context, oldPath, newPath string) error {
	src := minio.CopySrcOptions{Bucket: s.bucket, Object: s.key(oldPath)}
	dst := minio.CopyDestOptions{Bucket: s.bucket, Object: s.key(newPath)}

	if _, err := s.client.CopyObject(ctx, dst, src); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return fmt.Errorf("%w: %s", ErrNotExist, oldPath)
		}
		return err
	}

	return s.client.RemoveObject(ctx, s.bucket, src.Object, minio.RemoveObjectOptions{})
}

func (s *S3FS) ListDirectory(ctx context.Context, p string) ([]*FileInfo, error) {
	prefix := s.key(p)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var infos []*FileInfo
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix: prefix,
	}) {
		if object.Err != nil {
			return nil, object.Err
		}

		virtual := s.virtualPath(object.Key)
		isDir := strings.HasSuffix(object.Key, "/")

		infos = append(infos, &FileInfo{
			Path:    virtual,
			Name:    path.Base(virtual),
			Size:    object.Size,
			ModTime: object.LastModified,
			IsDir:   isDir,
		})
	}

	return infos, nil
}

// MkdirAll is a no-op: directories are implicit in object keys.
func (s *S3FS) MkdirAll(ctx context.Context, p string) error {
	return nil
}
