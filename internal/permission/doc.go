// Package permission defines the 128-bit permission mask, the catalog of
// named permission bits and the registry of protected content types.
//
// # Bit layout
//
// Catalog ids start at 1. Ids 1..63 live in the low word (bits 0..62) and
// ids 64..127 live in the high word (bits 0..63). The top bit of the low
// word is never assigned, so both words of a fully granted catalog of up to
// 63 ids stay non-negative when stored in signed bigint columns.
//
// # What this package must NOT do
//
//   - Access databases, caches or the network.
//   - Import grants, rbac or any transport package.
package permission
