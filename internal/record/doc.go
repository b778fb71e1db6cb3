// Package record defines the indexd record shape and the single gate every
// generated record passes through: ACL normalization, layered field merge and
// validation.
package record
