package indexd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"gdcmeta/internal/fetch"
	"gdcmeta/internal/logging"
	"gdcmeta/internal/record"
	"gdcmeta/internal/services"
)

// Doer is the subset of fetch.Client used by the indexd client.
type Doer interface {
	Do(ctx context.Context, req fetch.Request, out any) error
}

// Config describes the indexd endpoint and credentials.
type Config struct {
	Host     string
	Username string
	Password string
}

// Client creates or merges records in indexd.
type Client struct {
	base     string
	username string
	password string
	http     Doer
	logger   *slog.Logger
}

// NewClient constructs a client. A host without a scheme gets https://.
func NewClient(cfg Config, doer Doer, logger *slog.Logger) *Client {
	host := strings.TrimRight(strings.TrimSpace(cfg.Host), "/")
	if host != "" && !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return &Client{
		base:     host + "/index/",
		username: cfg.Username,
		password: cfg.Password,
		http:     doer,
		logger:   logging.NewComponentLogger(logger, "indexd"),
	}
}

// Upsert makes indexd hold rec. An existing record gains any new URLs
// (one per scheme, incoming wins) under its current revision; a missing one
// is created. The returned record is the state indexd reports afterwards.
func (c *Client) Upsert(ctx context.Context, rec record.IndexRecord) (record.IndexRecord, error) {
	if err := record.Validate(rec); err != nil {
		return record.IndexRecord{}, &UpsertError{ID: rec.DID, Op: OpValidate, Err: services.Wrap(services.ErrValidation, "post-recs", "upsert", "", err)}
	}
	ctx = services.WithRecordID(ctx, rec.DID)

	existing, err := c.Get(ctx, rec.DID)
	switch {
	case err == nil:
		return c.update(ctx, existing, rec)
	case fetch.IsNotFound(err):
		return c.create(ctx, rec)
	default:
		return record.IndexRecord{}, &UpsertError{ID: rec.DID, Op: OpGet, Err: err}
	}
}

// Get reads the current indexd record for id.
func (c *Client) Get(ctx context.Context, id string) (record.IndexRecord, error) {
	var out record.IndexRecord
	if err := c.http.Do(ctx, fetch.Request{Method: http.MethodGet, URL: c.base + url.PathEscape(id)}, &out); err != nil {
		return record.IndexRecord{}, err
	}
	if out.DID == "" {
		out.DID = id
	}
	return out, nil
}

type updateBody struct {
	ACL  []string `json:"acl"`
	URLs []string `json:"urls"`
}

type writeResponse struct {
	DID     string `json:"did"`
	Rev     string `json:"rev"`
	BaseID  string `json:"baseid"`
	Message string `json:"message"`
}

func (c *Client) update(ctx context.Context, existing, rec record.IndexRecord) (record.IndexRecord, error) {
	if !hasNewURL(existing.URLs, rec.URLs) {
		logging.WithContext(ctx, c.logger).Debug("indexd record already current")
		return existing, nil
	}
	merged, err := MergeURLs(existing.URLs, rec.URLs)
	if err != nil {
		return record.IndexRecord{}, &UpsertError{ID: rec.DID, Op: OpMerge, Err: services.Wrap(services.ErrValidation, "post-recs", "merge urls", "", err)}
	}

	target := c.base + url.PathEscape(rec.DID) + "?rev=" + url.QueryEscape(existing.Rev)
	body := updateBody{ACL: rec.ACL, URLs: merged}
	var resp writeResponse
	if err := c.http.Do(ctx, c.authed(http.MethodPut, target, body), &resp); err != nil {
		if fetch.IsConflict(err) {
			err = services.Wrap(services.ErrRemote, "post-recs", "update", "revision "+existing.Rev+" is stale", err)
		}
		return record.IndexRecord{}, &UpsertError{ID: rec.DID, Op: OpUpdate, Err: err}
	}

	confirmed, err := c.Get(ctx, rec.DID)
	if err != nil {
		return record.IndexRecord{}, &UpsertError{ID: rec.DID, Op: OpConfirm, Err: err}
	}
	logging.WithContext(ctx, c.logger).Info("indexd record updated",
		logging.String("rev", confirmed.Rev),
		logging.Strings("urls", confirmed.URLs),
	)
	return confirmed, nil
}

func (c *Client) create(ctx context.Context, rec record.IndexRecord) (record.IndexRecord, error) {
	body := rec.Clone()
	body.Rev = ""
	var resp writeResponse
	if err := c.http.Do(ctx, c.authed(http.MethodPost, c.base, body), &resp); err != nil {
		return record.IndexRecord{}, &UpsertError{ID: rec.DID, Op: OpCreate, Err: err}
	}

	confirmed, err := c.Get(ctx, rec.DID)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "indexd re-read after create failed", "indexd_confirm",
			logging.Error(err),
			logging.String(logging.FieldImpact, "stored record reflects request data and create response"),
			logging.String(logging.FieldErrorHint, "verify the record in indexd"),
		)
		confirmed = body
		if resp.DID != "" {
			confirmed.DID = resp.DID
		}
		confirmed.Rev = resp.Rev
	}
	logging.WithContext(ctx, c.logger).Info("indexd record created", logging.String("rev", confirmed.Rev))
	return confirmed, nil
}

func (c *Client) authed(method, target string, body any) fetch.Request {
	return fetch.Request{
		Method:   method,
		URL:      target,
		Body:     body,
		Username: c.username,
		Password: c.password,
	}
}

func hasNewURL(existing, incoming []string) bool {
	have := make(map[string]struct{}, len(existing))
	for _, u := range existing {
		have[u] = struct{}{}
	}
	for _, u := range incoming {
		if _, ok := have[u]; !ok {
			return true
		}
	}
	return false
}

// schemes in output order
var schemes = []string{"s3", "gs"}

// MergeURLs keeps one URL per storage scheme, with incoming URLs replacing
// existing ones of the same scheme. Any URL with a scheme other than s3 or gs
// is an error.
func MergeURLs(existing, incoming []string) ([]string, error) {
	byScheme := make(map[string]string, len(schemes))
	for _, u := range append(append([]string(nil), existing...), incoming...) {
		scheme, err := schemeOf(u)
		if err != nil {
			return nil, err
		}
		byScheme[scheme] = u
	}
	out := make([]string, 0, len(byScheme))
	for _, s := range schemes {
		if u, ok := byScheme[s]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func schemeOf(u string) (string, error) {
	lower := strings.ToLower(u)
	for _, s := range schemes {
		if strings.HasPrefix(lower, s+":") {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownScheme, u)
}

// ErrUnknownScheme is returned by MergeURLs for URLs outside s3 and gs.
var ErrUnknownScheme = errors.New("unknown url scheme")
