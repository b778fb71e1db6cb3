package record

// Fields is a partial record. Zero values mean "absent" so layers can be
// stacked with Build without clobbering populated fields.
type Fields struct {
	ID       string            `json:"did,omitempty"`
	FileName string            `json:"file_name,omitempty"`
	ACL      []string          `json:"acl,omitempty"`
	MD5      string            `json:"md5,omitempty"`
	Size     int64             `json:"size,omitempty"`
	URLs     []string          `json:"urls,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// IsZero reports whether no field is populated.
func (f Fields) IsZero() bool {
	return f.ID == "" && f.FileName == "" && len(f.ACL) == 0 && f.MD5 == "" &&
		f.Size == 0 && len(f.URLs) == 0 && len(f.Metadata) == 0
}

// Overlay returns f with every populated field of top applied over it.
func (f Fields) Overlay(top Fields) Fields {
	out := f
	if top.ID != "" {
		out.ID = top.ID
	}
	if top.FileName != "" {
		out.FileName = top.FileName
	}
	if len(top.ACL) > 0 {
		out.ACL = append([]string(nil), top.ACL...)
	}
	if top.MD5 != "" {
		out.MD5 = top.MD5
	}
	if top.Size > 0 {
		out.Size = top.Size
	}
	if len(top.URLs) > 0 {
		out.URLs = append([]string(nil), top.URLs...)
	}
	if len(top.Metadata) > 0 {
		merged := make(map[string]string, len(out.Metadata)+len(top.Metadata))
		for k, v := range out.Metadata {
			merged[k] = v
		}
		for k, v := range top.Metadata {
			merged[k] = v
		}
		out.Metadata = merged
	}
	return out
}

// FromRecord lifts a full record back into its field layer.
func FromRecord(r IndexRecord) Fields {
	return Fields{
		ID:       r.DID,
		FileName: r.FileName,
		ACL:      append([]string(nil), r.ACL...),
		MD5:      r.Hashes.MD5,
		Size:     r.Size,
		URLs:     append([]string(nil), r.URLs...),
		Metadata: r.Metadata,
	}
}

// Build assembles a record for id from the layers in order (defaults first,
// caller overrides last), normalizes its ACL and validates it. It is the
// single constructor every emitted record passes through.
func Build(id string, layers ...Fields) (IndexRecord, error) {
	merged := Fields{ID: id}
	for _, layer := range layers {
		merged = merged.Overlay(layer)
	}
	// the requested id is authoritative over any layer
	if id != "" {
		merged.ID = id
	}

	rec := IndexRecord{
		DID:          merged.ID,
		ACL:          NormalizeACL(merged.ACL),
		FileName:     merged.FileName,
		Form:         FormObject,
		Hashes:       Hashes{MD5: merged.MD5},
		Size:         merged.Size,
		URLs:         append([]string(nil), merged.URLs...),
		URLsMetadata: map[string]any{},
		Metadata:     map[string]string{},
	}
	for k, v := range merged.Metadata {
		rec.Metadata[k] = v
	}
	if rec.ACL == nil {
		rec.ACL = []string{}
	}
	if err := Validate(rec); err != nil {
		return IndexRecord{}, err
	}
	return rec, nil
}
