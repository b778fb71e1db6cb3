package indexd

import "fmt"

// Upsert phases reported in UpsertError.Op.
const (
	OpValidate = "validate"
	OpGet      = "get"
	OpMerge    = "merge"
	OpUpdate   = "update"
	OpConfirm  = "confirm"
	OpCreate   = "create"
)

// UpsertError reports which phase of an upsert failed.
type UpsertError struct {
	ID  string
	Op  string
	Err error
}

func (e *UpsertError) Error() string {
	return fmt.Sprintf("indexd %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *UpsertError) Unwrap() error { return e.Err }
