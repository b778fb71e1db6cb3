// Package testsupport builds isolated configurations and fixture files for
// package and CLI tests.
package testsupport
