// Package logs reads the gdcmeta log file for the `gdcmeta logs` command.
//
// Last returns the trailing lines with bounded memory and Follow polls for
// appended lines, restarting from the top when the rotating writer truncates
// or replaces the file.
package logs
