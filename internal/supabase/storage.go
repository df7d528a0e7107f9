package supabase

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"
	"memorial-storefront/internal/models"
)

// StorageClient uploads memorial photos to a public bucket. It is safe for
// concurrent use.
type StorageClient struct {
	// mu serialises uploads: storage-go sets each upload's headers on a
	// transport shared by every request of the client.
	mu      sync.Mutex
	client  *storage.Client
	bucket  string
	baseURL string
	now     func() time.Time
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string) *StorageClient {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	return &StorageClient{
		client:  storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil),
		bucket:  bucket,
		baseURL: baseURL,
		now:     time.Now,
	}
}

// UploadPhoto stores one photo under folder and returns its public URL.
func (s *StorageClient) UploadPhoto(ctx context.Context, folder string, file models.PhotoFile) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(file.Data) == 0 {
		return "", fmt.Errorf("photo %q has no data", file.Filename)
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(file.Data)
	}

	objectPath := s.objectPath(folder, photoExtension(file.Filename, contentType))
	upsert := false
	s.mu.Lock()
	_, err := s.client.UploadFile(s.bucket, objectPath, bytes.NewReader(file.Data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	s.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("failed to upload photo %q: %w", file.Filename, err)
	}

	return s.PublicURL(objectPath), nil
}

func (s *StorageClient) PublicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, objectPath)
}

func (s *StorageClient) objectPath(folder, ext string) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	name := fmt.Sprintf("%d-%s", s.now().UnixMilli(), random)
	if ext != "" {
		name += "." + ext
	}
	if folder == "" {
		return name
	}
	return strings.Trim(folder, "/") + "/" + name
}

func photoExtension(filename, contentType string) string {
	if ext := strings.TrimPrefix(filepath.Ext(filename), "."); ext != "" {
		return strings.ToLower(ext)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mediaType {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	return ""
}
