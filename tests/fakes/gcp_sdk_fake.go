package fakes

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
)

// FakeGCPSecretManagerClient is a mock GCP Secret Manager client
// covering the subset of operations the provider uses.
type FakeGCPSecretManagerClient struct {
	// Secrets maps full resource names (without version suffix) to values
	Secrets map[string]string
	// Labels maps resource names to secret labels
	Labels map[string]map[string]string
	// Errors maps resource names to errors to return
	Errors map[string]error
}

// NewFakeGCPSecretManagerClient creates a new mock Secret Manager client
func NewFakeGCPSecretManagerClient() *FakeGCPSecretManagerClient {
	return &FakeGCPSecretManagerClient{
		Secrets: make(map[string]string),
		Labels:  make(map[string]map[string]string),
		Errors:  make(map[string]error),
	}
}

// AddSecret adds a secret value under projects/<project>/secrets/<name>
func (f *FakeGCPSecretManagerClient) AddSecret(project, name, value string) {
	f.Secrets[fmt.Sprintf("projects/%s/secrets/%s", project, name)] = value
}

// AccessSecretVersion mocks reading a secret version payload
func (f *FakeGCPSecretManagerClient) AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	name, version, found := cutVersion(req.Name)
	if !found {
		return nil, fmt.Errorf("rpc error: code = 3 desc = invalid resource name %q", req.Name)
	}

	if err, exists := f.Errors[name]; exists {
		return nil, err
	}

	value, exists := f.Secrets[name]
	if !exists {
		return nil, fmt.Errorf("rpc error: code = 5 desc = Secret [%s] not found", name)
	}
	if version == "latest" {
		version = "1"
	}

	return &secretmanagerpb.AccessSecretVersionResponse{
		Name:    fmt.Sprintf("%s/versions/%s", name, version),
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(value)},
	}, nil
}

// GetSecret mocks reading secret metadata
func (f *FakeGCPSecretManagerClient) GetSecret(ctx context.Context, req *secretmanagerpb.GetSecretRequest, opts ...gax.CallOption) (*secretmanagerpb.Secret, error) {
	if err, exists := f.Errors[req.Name]; exists {
		return nil, err
	}

	if _, exists := f.Secrets[req.Name]; !exists {
		return nil, fmt.Errorf("rpc error: code = 5 desc = Secret [%s] not found", req.Name)
	}

	return &secretmanagerpb.Secret{
		Name:   req.Name,
		Labels: f.Labels[req.Name],
	}, nil
}

// cutVersion splits "projects/p/secrets/s/versions/v" into the secret
// name and version.
func cutVersion(resource string) (name, version string, found bool) {
	const sep = "/versions/"
	idx := strings.LastIndex(resource, sep)
	if idx == -1 {
		return resource, "", false
	}
	return resource[:idx], resource[idx+len(sep):], true
}
