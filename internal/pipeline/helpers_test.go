package pipeline_test

import "gdcmeta/internal/manifest"

func manifestParser() manifest.Parser {
	return manifest.BucketListing{BucketURL: "s3://bucket", ACL: []string{"*"}}
}
