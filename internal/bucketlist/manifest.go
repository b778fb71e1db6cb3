package bucketlist

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"gdcmeta/internal/logging"
	"gdcmeta/internal/manifest"
)

// Header is the first row of a generated CSV manifest.
var Header = []string{"file_gcs_url", "file_gdc_id", "file_size", "file_gcs_timestamp", "file_name"}

// Stats summarizes one listing.
type Stats struct {
	Listed  int `json:"listed"`
	Written int `json:"written"`
	Skipped int `json:"skipped"`
}

// ParseBucketURL splits gs://bucket/prefix into its bucket and prefix.
func ParseBucketURL(raw string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(raw), "gs://")
	if !ok {
		rest = strings.TrimSpace(raw)
		if strings.Contains(rest, "://") {
			return "", "", fmt.Errorf("unsupported bucket url %q (only gs:// is listable)", raw)
		}
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("bucket url %q has no bucket name", raw)
	}
	return bucket, prefix, nil
}

// WriteManifest lists bucket under prefix and writes one CSV row per object
// whose path carries an object id. Folder placeholders, empty objects and
// objects without an id are skipped.
func WriteManifest(ctx context.Context, w io.Writer, src Source, bucket, prefix string, logger *slog.Logger) (Stats, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	var stats Stats
	out := csv.NewWriter(w)
	if err := out.Write(Header); err != nil {
		return stats, fmt.Errorf("write header: %w", err)
	}

	err := src.List(ctx, bucket, prefix, func(obj Object) error {
		stats.Listed++
		if strings.HasSuffix(obj.Name, "/") || obj.Size <= 0 {
			stats.Skipped++
			return nil
		}
		id, ok := manifest.ExtractID(obj.Name)
		if !ok {
			stats.Skipped++
			logger.Debug("object has no id in path", logging.String("object", obj.Name))
			return nil
		}
		row := []string{
			"gs://" + bucket + "/" + obj.Name,
			id,
			strconv.FormatInt(obj.Size, 10),
			obj.Updated.UTC().Format(time.RFC3339),
			path.Base(obj.Name),
		}
		if err := out.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
		stats.Written++
		return nil
	})
	out.Flush()
	if err != nil {
		return stats, err
	}
	if err := out.Error(); err != nil {
		return stats, fmt.Errorf("flush manifest: %w", err)
	}
	logger.Info("bucket listing complete",
		logging.String("bucket", bucket),
		logging.String("prefix", prefix),
		logging.Int("listed", stats.Listed),
		logging.Int("written", stats.Written),
		logging.Int("skipped", stats.Skipped),
	)
	return stats, nil
}
