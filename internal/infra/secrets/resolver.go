// internal/infra/secrets/resolver.go
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretspb "google.golang.org/genproto/googleapis/cloud/secretmanager/v1"
)

var ErrNotConfigured = errors.New("secrets: resolver not configured")

const smPrefix = "sm://"

// Resolver turns "sm://secret-id" config values into Secret Manager payloads.
// Plain values pass through untouched, so local dev can keep secrets in env.
type Resolver struct {
	Client    *secretmanager.Client
	ProjectID string
}

func NewResolver(ctx context.Context, projectID string) (*Resolver, error) {
	pid := strings.TrimSpace(projectID)
	if pid == "" {
		return nil, fmt.Errorf("%w: projectID is empty", ErrNotConfigured)
	}
	c, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Resolver{Client: c, ProjectID: pid}, nil
}

// Resolve returns value as-is unless it carries the sm:// prefix, in which
// case the latest secret version is fetched.
func (r *Resolver) Resolve(ctx context.Context, value string) (string, error) {
	v := strings.TrimSpace(value)
	if !strings.HasPrefix(v, smPrefix) {
		return v, nil
	}
	if r == nil || r.Client == nil {
		return "", ErrNotConfigured
	}

	secretID := strings.TrimPrefix(v, smPrefix)
	if secretID == "" {
		return "", fmt.Errorf("secrets: empty secret id in %q", value)
	}

	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", r.ProjectID, secretID)
	res, err := r.Client.AccessSecretVersion(ctx, &secretspb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("secrets: access %s: %w", secretID, err)
	}
	if res == nil || res.Payload == nil {
		return "", fmt.Errorf("secrets: empty payload for %s", secretID)
	}
	return strings.TrimSpace(string(res.Payload.Data)), nil
}

func (r *Resolver) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
