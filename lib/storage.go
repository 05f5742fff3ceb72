package lib

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

// Storage is the location batch files are written to. Names are relative to the
// storage root; URL returns the address a bulk loader can fetch the file from.
type Storage interface {
	Create(ctx context.Context, name string) (io.WriteCloser, error)
	URL(name string) string
}

// StorageConfig describes where batch files go. Root is either a local directory
// (optionally as a file:// URL) or an s3://bucket/prefix URL served by MinIO or S3.
type StorageConfig struct {
	Root            string `json:"root" yaml:"root"`
	Prefix          string `json:"prefix" yaml:"prefix"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	UseSSL          bool   `json:"use_ssl" yaml:"use_ssl"`
}

func NewStorage(cfg StorageConfig) (Storage, error) {
	root := cfg.Root
	if root == "" {
		root = os.TempDir()
	}

	u, err := url.Parse(root)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid storage root %q", root)
	}

	switch u.Scheme {
	case "", "file":
		dir := root
		if u.Scheme == "file" {
			dir = u.Path
		}
		return NewLocalStorage(dir)
	case "s3":
		return NewMinioStorage(cfg, u.Host, strings.TrimPrefix(u.Path, "/"))
	default:
		return nil, errors.Errorf("unsupported storage root scheme %q", u.Scheme)
	}
}

type LocalStorage struct {
	dir string
}

func NewLocalStorage(dir string) (*LocalStorage, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to resolve storage directory %q", dir)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errors.Wrapf(err, "unable to create storage directory %q", abs)
	}
	return &LocalStorage{dir: abs}, nil
}

func (s *LocalStorage) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath := s.path(name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, errors.Wrapf(err, "unable to create directory for %q", name)
	}
	f, err := os.Create(fullPath)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create %q", fullPath)
	}
	return f, nil
}

func (s *LocalStorage) URL(name string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(s.path(name))}).String()
}

func (s *LocalStorage) path(name string) string {
	return filepath.Join(s.dir, filepath.FromSlash(name))
}

// MinioStorage streams batch files into a bucket without buffering whole files.
type MinioStorage struct {
	client *minio.Client
	bucket string
	prefix string
}

const minioPartSize = 16 << 20

func NewMinioStorage(cfg StorageConfig, bucket, prefix string) (*MinioStorage, error) {
	if bucket == "" {
		return nil, errors.New("bucket is required for s3 storage roots")
	}

	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
		useSSL = true
	}
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		useSSL = useSSL || u.Scheme == "https"
	}

	var creds *credentials.Credentials
	if cfg.AccessKeyID != "" {
		creds = credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	} else {
		creds = credentials.NewEnvAWS()
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to create object storage client")
	}

	return &MinioStorage{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

func (s *MinioStorage) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	w := &objectWriter{pw: pw, done: make(chan error, 1)}
	key := s.key(name)
	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, key, pr, -1, minio.PutObjectOptions{
			ContentType: "application/gzip",
			PartSize:    minioPartSize,
		})
		// unblock the writer if the upload gave up early
		pr.CloseWithError(err)
		w.done <- errors.Wrapf(err, "unable to upload %q", key)
	}()
	return w, nil
}

func (s *MinioStorage) URL(name string) string {
	return "s3://" + s.bucket + "/" + s.key(name)
}

func (s *MinioStorage) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

type objectWriter struct {
	pw   *io.PipeWriter
	done chan error
}

func (w *objectWriter) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

// Close finishes the upload and reports its outcome.
func (w *objectWriter) Close() error {
	if err := w.pw.Close(); err != nil {
		return err
	}
	return <-w.done
}
