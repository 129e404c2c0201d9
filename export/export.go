// Package export writes query results out as newline-delimited JSON, either
// to a local file or to an S3 object.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	omclient "github.com/berickus/redis-om-spring/client"
)

// ProgressFunc reports rows written so far out of the total.
type ProgressFunc func(written, total int64)

// Documents exports raw search documents to destURL. Supported schemes are
// plain file paths and s3://bucket/key.
func Documents(ctx context.Context, docs []omclient.Document, destURL string) error {
	return DocumentsWithProgress(ctx, docs, destURL, nil)
}

// DocumentsWithProgress is Documents with a per-row progress callback.
func DocumentsWithProgress(ctx context.Context, docs []omclient.Document, destURL string, progress ProgressFunc) error {
	var buf bytes.Buffer
	if err := writeNDJSON(ctx, &buf, docs, progress); err != nil {
		return err
	}

	u, err := url.Parse(destURL)
	if err != nil {
		return fmt.Errorf("failed to parse destination URL: %w", err)
	}
	switch u.Scheme {
	case "s3":
		return uploadS3(ctx, u, buf.Bytes())
	case "", "file":
		return writeFile(u, buf.Bytes())
	default:
		return fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
	}
}

// Rows exports aggregation rows to destURL in the same NDJSON shape.
func Rows(ctx context.Context, rows []map[string]string, destURL string) error {
	docs := make([]omclient.Document, len(rows))
	for i, row := range rows {
		docs[i] = omclient.Document{Fields: row}
	}
	return Documents(ctx, docs, destURL)
}

type record struct {
	Key    string            `json:"key,omitempty"`
	Fields map[string]string `json:"fields"`
}

func writeNDJSON(ctx context.Context, buf *bytes.Buffer, docs []omclient.Document, progress ProgressFunc) error {
	enc := json.NewEncoder(buf)
	total := int64(len(docs))
	if progress != nil {
		progress(0, total)
	}
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := enc.Encode(record{Key: doc.ID, Fields: doc.Fields}); err != nil {
			return fmt.Errorf("failed to encode record %q: %w", doc.ID, err)
		}
		if progress != nil {
			progress(int64(i+1), total)
		}
	}
	return nil
}

func writeFile(u *url.URL, data []byte) error {
	path := u.Path
	if u.Scheme == "" {
		path = u.String()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write destination file: %w", err)
	}
	return nil
}

func uploadS3(ctx context.Context, u *url.URL, data []byte) error {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}
	s3Client := s3.NewFromConfig(cfg)

	_, err = s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.Host),
		Key:    aws.String(strings.TrimPrefix(u.Path, "/")),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}
