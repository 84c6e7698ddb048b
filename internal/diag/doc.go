// Package diag defines the diagnostic model shared by the scanner and the driver.
//
// Diagnostic is the central record: Severity, a compact numeric Code with a
// stable string form (LEX1001, IO4001, ...), a short Message, the Primary
// span and optional Notes pointing at related source.
//
// Producers emit through a Reporter so they stay decoupled from storage;
// BagReporter collects into a bounded Bag which supports sorting and
// deduplication. Package diag does no formatting or IO: rendering lives in
// internal/diagfmt.
package diag
