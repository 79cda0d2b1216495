// Package gcs is an additive OutputSink (SPEC_FULL.md §4.4) that archives
// the FD JSON to a GCS bucket alongside the always-on local file. cmd/hyfd
// writes it through the same per-iteration output path as the local file,
// so the object is re-uploaded after every iteration and holds the final
// list once the run ends. Adapted from the teacher's cmd/aleutian/gcs client.
package gcs

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/storage"

	"github.com/opencover/hyfd/internal/fdio"
)

// Sink uploads the JSON-encoded FD list to a single object in Bucket on
// every WriteFDs call.
type Sink struct {
	client     *storage.Client
	BucketName string
	ObjectPath string
}

// New dials a GCS client using application-default credentials (no
// service-account key is a hard requirement here, unlike the teacher's
// CLI tool, since a long discovery run typically executes inside a GCP
// project with workload identity already configured).
func New(ctx context.Context, bucketName, objectPath string) (*Sink, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs: creating storage client: %w", err)
	}
	return &Sink{client: client, BucketName: bucketName, ObjectPath: objectPath}, nil
}

// WriteFDs uploads pairs as a JSON object, overwriting any prior archive
// at ObjectPath.
func (s *Sink) WriteFDs(ctx context.Context, pairs []fdio.Pair) error {
	data, err := json.Marshal(pairs)
	if err != nil {
		return fmt.Errorf("gcs: marshaling FDs: %w", err)
	}

	obj := s.client.Bucket(s.BucketName).Object(s.ObjectPath)
	writer := obj.NewWriter(ctx)
	writer.ContentType = "application/json"
	writer.CacheControl = "no-cache, no-store, must-revalidate"

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("gcs: writing object %s: %w", s.ObjectPath, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("gcs: closing writer for %s: %w", s.ObjectPath, err)
	}
	return nil
}

// Close releases the underlying GCS client.
func (s *Sink) Close() error {
	return s.client.Close()
}
