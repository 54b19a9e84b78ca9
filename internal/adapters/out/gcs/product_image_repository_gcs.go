// internal/adapters/out/gcs/product_image_repository_gcs.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// ProductImageRepositoryGCS stores catalog images in a single bucket.
//
// Layout:
// - bucket: vornify-product-images
// - objectPath: products/{productId}/<fileName>
//
// Public access assumes the bucket has IAM "allUsers: Storage Object Viewer"
// (uniform access), so uploaded objects are publicly readable without
// per-object ACL changes.
type ProductImageRepositoryGCS struct {
	Client *storage.Client
	Bucket string
	// Optional: if empty, uses https://storage.googleapis.com
	PublicBaseURL string
}

func NewProductImageRepositoryGCS(client *storage.Client, bucket string) *ProductImageRepositoryGCS {
	return &ProductImageRepositoryGCS{
		Client:        client,
		Bucket:        strings.TrimSpace(bucket),
		PublicBaseURL: "https://storage.googleapis.com",
	}
}

// Upload writes the image bytes and returns the public URL.
func (r *ProductImageRepositoryGCS) Upload(ctx context.Context, productID, filename, contentType string, data []byte) (string, error) {
	if r == nil || r.Client == nil {
		return "", errors.New("product_image_repository_gcs: storage client is nil")
	}
	b := strings.TrimSpace(r.Bucket)
	if b == "" {
		return "", errors.New("product_image_repository_gcs: bucket is empty")
	}
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return "", errors.New("product_image_repository_gcs: productID is empty")
	}
	name := strings.TrimSpace(filename)
	if name == "" {
		return "", errors.New("product_image_repository_gcs: filename is empty")
	}
	if len(data) == 0 {
		return "", errors.New("product_image_repository_gcs: data is empty")
	}

	objPath := fmt.Sprintf("products/%s/%s", pid, name)

	w := r.Client.Bucket(b).Object(objPath).NewWriter(ctx)
	if ct := strings.TrimSpace(contentType); ct != "" {
		w.ContentType = ct
	}
	w.ChunkSize = 0
	w.Metadata = map[string]string{
		"uploadedAt": time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	return r.publicURL(b, objPath), nil
}

// Delete removes an object (idempotent: a missing object is not an error).
func (r *ProductImageRepositoryGCS) Delete(ctx context.Context, objectPath string) error {
	if r == nil || r.Client == nil {
		return errors.New("product_image_repository_gcs: storage client is nil")
	}
	obj := strings.TrimSpace(objectPath)
	if obj == "" {
		return nil
	}
	if err := r.Client.Bucket(r.Bucket).Object(obj).Delete(ctx); err != nil && err != storage.ErrObjectNotExist {
		return err
	}
	return nil
}

func (r *ProductImageRepositoryGCS) publicURL(bucket, objectPath string) string {
	base := strings.TrimSpace(r.PublicBaseURL)
	if base == "" {
		base = "https://storage.googleapis.com"
	}
	// Encode path but keep "/" separators.
	parts := strings.Split(objectPath, "/")
	for i := range parts {
		parts[i] = url.PathEscape(parts[i])
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), bucket, strings.Join(parts, "/"))
}
