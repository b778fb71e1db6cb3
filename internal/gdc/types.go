package gdc

import (
	"context"

	"gdcmeta/internal/record"
)

// Fetcher is the subset of fetch.Client the GDC clients use.
type Fetcher interface {
	GetJSON(ctx context.Context, url string, out any) error
	PostJSON(ctx context.Context, url string, body, out any) error
}

// Cache is a read-only id to metadata snapshot.
type Cache interface {
	Lookup(id string) (record.Fields, bool)
}

type fileResponse struct {
	Data fileHit `json:"data"`
}

type fileHit struct {
	ID       string   `json:"id"`
	ACL      []string `json:"acl"`
	FileSize int64    `json:"file_size"`
	MD5Sum   string   `json:"md5sum"`
}

type indexQuery struct {
	Filters indexFilter `json:"filters"`
	Fields  string      `json:"fields"`
}

type indexFilter struct {
	Content indexFilterContent `json:"content"`
	Op      string             `json:"op"`
}

type indexFilterContent struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type indexResponse struct {
	Data struct {
		Hits []indexHit `json:"hits"`
	} `json:"data"`
}

type indexHit struct {
	ACL        []string    `json:"acl"`
	IndexFiles []indexFile `json:"index_files"`
}

type indexFile struct {
	FileID   string `json:"file_id"`
	MD5Sum   string `json:"md5sum"`
	FileSize int64  `json:"file_size"`
	FileName string `json:"file_name"`
}

type pageResponse struct {
	Data struct {
		Hits       []fileHit  `json:"hits"`
		Pagination pagination `json:"pagination"`
	} `json:"data"`
}

type pagination struct {
	Total int `json:"total"`
	From  int `json:"from"`
	Count int `json:"count"`
}

func newIndexQuery(id string) indexQuery {
	return indexQuery{
		Filters: indexFilter{
			Content: indexFilterContent{Field: "index_files.file_id", Value: id},
			Op:      "=",
		},
		Fields: "index_files.file_id,acl,index_files.md5sum,index_files.file_size,index_files.file_name",
	}
}

// mapACL converts GDC access tags: "open" becomes the public wildcard.
func mapACL(acl []string) []string {
	out := make([]string, 0, len(acl))
	for _, tag := range acl {
		if tag == "open" {
			tag = "*"
		}
		out = append(out, tag)
	}
	return out
}

func (h fileHit) fields() record.Fields {
	return record.Fields{
		ID:   h.ID,
		ACL:  mapACL(h.ACL),
		Size: h.FileSize,
		MD5:  h.MD5Sum,
	}
}
