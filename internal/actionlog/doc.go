// Package actionlog persists action records as one JSON file per record.
//
// The log directory is "logs" beside the store file. File names are
// "<id>.log.json" where id comes from ir.RecordID, so sorting file names
// lexicographically yields creation order.
//
// Each file is written atomically: data goes to a temp file in the same
// directory which is then renamed into place. A reader never sees a partial
// record.
//
// Files written by the legacy tool use the pattern
// "2024-05-01T10-11-12.123456.log.json". They are listed and replayed like
// any other record but carry no id, so Last ignores them.
package actionlog
