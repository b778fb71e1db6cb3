package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gdcmeta/internal/manifest"
)

const (
	formatListing = "listing"
	formatCSV     = "csv"
	formatGDC     = "gdc"
)

type manifestFlags struct {
	format string
	bucket string
	acl    []string
}

func (f *manifestFlags) register(cmd *cobra.Command, defaultFormat string) {
	cmd.Flags().StringVar(&f.format, "format", defaultFormat, "Manifest format: listing, csv or gdc")
	cmd.Flags().StringVar(&f.bucket, "bucket", "", "Bucket URL for listing manifests (e.g. s3://my-bucket)")
	cmd.Flags().StringSliceVar(&f.acl, "acl", nil, "ACL for listed objects (defaults to the configured bucket mapping)")
}

func (f *manifestFlags) parser(ctx *commandContext) (manifest.Parser, error) {
	switch strings.ToLower(strings.TrimSpace(f.format)) {
	case formatListing:
		bucket := strings.TrimRight(strings.TrimSpace(f.bucket), "/")
		if bucket == "" {
			return nil, fmt.Errorf("--bucket is required for listing manifests")
		}
		acl := f.acl
		if len(acl) == 0 {
			acls, err := ctx.bucketACLs()
			if err != nil {
				return nil, err
			}
			mapped, ok := acls[bucket]
			if !ok {
				return nil, fmt.Errorf("no acl for %s: pass --acl or add it to [buckets.acl]", bucket)
			}
			acl = mapped
		}
		return manifest.BucketListing{BucketURL: bucket, ACL: acl}, nil
	case formatCSV:
		acls, err := ctx.bucketACLs()
		if err != nil {
			return nil, err
		}
		if f.bucket != "" && len(f.acl) > 0 {
			acls = acls.Merge(manifest.BucketACLs{strings.TrimRight(f.bucket, "/"): f.acl})
		}
		return manifest.CSVManifest{ACLs: acls}, nil
	case formatGDC:
		return manifest.GDCManifest{}, nil
	default:
		return nil, fmt.Errorf("unknown manifest format %q (want listing, csv or gdc)", f.format)
	}
}
