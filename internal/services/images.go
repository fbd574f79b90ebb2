package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"flower_shop/internal/models"
)

// ImageStore saves uploaded product images in MinIO when a client is
// configured and under the local upload folder otherwise.
type ImageStore struct {
	minio    *minio.Client
	bucket   string
	endpoint string
	useSSL   bool
	folder   string
}

func NewImageStore(client *minio.Client, bucket, endpoint string, useSSL bool, folder string) *ImageStore {
	return &ImageStore{minio: client, bucket: bucket, endpoint: endpoint, useSSL: useSSL, folder: folder}
}

func (s *ImageStore) Folder() string {
	return s.folder
}

// Save stores the upload and returns the value for Product.Image: a bare
// file name for local files, an absolute URL for MinIO objects. A nil file
// yields the default image.
func (s *ImageStore) Save(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if file == nil || file.Filename == "" {
		return models.DefaultProductImage, nil
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := UploadName(file.Filename)

	if s.minio != nil {
		_, err := s.minio.PutObject(ctx, s.bucket, name, src, file.Size,
			minio.PutObjectOptions{ContentType: file.Header.Get("Content-Type")})
		if err != nil {
			return "", fmt.Errorf("upload to minio: %w", err)
		}
		scheme := "http"
		if s.useSSL {
			scheme = "https"
		}
		return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, name), nil
	}

	if err := os.MkdirAll(s.folder, 0o755); err != nil {
		return "", err
	}
	dst, err := os.Create(filepath.Join(s.folder, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return name, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// UploadName builds "<uuid>_<sanitized name>".
func UploadName(original string) string {
	return uuid.NewString() + "_" + SanitizeFilename(original)
}

// SanitizeFilename keeps only ASCII letters, digits, dot, dash and
// underscore, and strips any directory part.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	if name == "" {
		return "upload"
	}
	return name
}
