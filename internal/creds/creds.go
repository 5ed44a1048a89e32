// Package creds loads Google service account credentials from JSON keys,
// whether held in files or in environment variables.
package creds

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
)

// StorageFullControlScope is the default OAuth scope requested for storage
// operations.
const StorageFullControlScope = "https://www.googleapis.com/auth/devstorage.full_control"

// Normalize repairs a service account JSON key whose private_key field
// carries literal "\n" sequences instead of newlines. Keys pasted into
// environment variables usually arrive in that form.
func Normalize(data []byte) ([]byte, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("invalid service account key: %w", err)
	}

	if pk, ok := fields["private_key"].(string); ok {
		fields["private_key"] = strings.ReplaceAll(pk, `\n`, "\n")
	}

	normalized, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode service account key: %w", err)
	}
	return normalized, nil
}

// FromJSON builds credentials from a service account JSON key, normalizing
// the private key first. Defaults to the storage full-control scope.
func FromJSON(ctx context.Context, data []byte, scopes ...string) (*google.Credentials, error) {
	normalized, err := Normalize(data)
	if err != nil {
		return nil, err
	}

	if len(scopes) == 0 {
		scopes = []string{StorageFullControlScope}
	}

	cred, err := google.CredentialsFromJSON(ctx, normalized, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to build credentials: %w", err)
	}
	return cred, nil
}

// FromEnv builds credentials from a service account JSON key held in the
// named environment variable.
func FromEnv(ctx context.Context, envVar string, scopes ...string) (*google.Credentials, error) {
	raw, ok := os.LookupEnv(envVar)
	if !ok || raw == "" {
		return nil, fmt.Errorf("environment variable %s not set", envVar)
	}
	return FromJSON(ctx, []byte(raw), scopes...)
}

// DumpKey reads a JSON key file and returns its contents as a compact
// single-line string, suitable for storing in an environment variable.
func DumpKey(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read key file %s: %w", path, err)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return "", fmt.Errorf("key file %s is not valid JSON: %w", path, err)
	}
	return buf.String(), nil
}
