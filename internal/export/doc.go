// Package export dumps the tracked mapping to files and copies the store.
//
// Three formats are written, chosen by file extension as the legacy tool
// did: .json, .yaml or .yml, and anything else as CSV with a name,state
// header. Backups are byte copies of the store file taken after a WAL
// checkpoint.
package export
