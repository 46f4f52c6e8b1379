// Package core converts uploaded tables between delimited text and
// spreadsheets, cleaning them on the way.
//
// It holds the domain logic independent of any transport. The web server
// and the tabclean CLI both drive it.
//
// # Pipeline
//
// Delimited input goes through three stages before cleaning:
//
//  1. [NormalizeText] decodes the bytes, rewrites ";" and tab separators to
//     ",", replaces null markers with "NA" and strips thousands grouping.
//  2. [DetectDialect] picks the delimiter from the first [SniffSampleSize]
//     bytes, defaulting to ",".
//  3. [ParseTable] reads a header and rows leniently. Rows with the wrong
//     field count are skipped and counted; only input with no header fails,
//     with [ErrParseFailure].
//
// [CleanTable] then drops blank rows, removes duplicates and trims names
// and values. It is idempotent. [ExportTable] serializes the result; backend
// errors surface as [ErrExportFailure].
//
// # Formats
//
// Readers and writers are registered per [Format] with [RegisterFormat].
// The formats subpackage registers delimited text and xlsx at init time:
//
//	import _ "github.com/JonMunkholm/tabconvert/internal/core/formats"
//
// # Service
//
// [Service.Convert] wraps the pipeline for request handling: it bounds
// concurrency with a [Limiter], applies the configured timeout, spools the
// upload into a private [Workspace] that is removed on every exit path, and
// reports each outcome to a [Recorder].
//
// # Error Handling
//
// Technical errors are mapped to short user messages with [MapError]. Codes:
//
//   - FILE001-FILE006: upload and parse problems
//   - FMT001: unsupported format
//   - EXP001: export failure
//   - UPL002-UPL005: no free conversion slot, or the request ended early
package core
