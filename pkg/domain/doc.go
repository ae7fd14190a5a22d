// Package domain contains the core types shared across the hearth bot:
// conversation state records, thread and step identifiers, and the error
// taxonomy of the flow engine.
//
// Nothing in this package performs I/O. It is imported by every other
// package and must stay dependency-free.
package domain
