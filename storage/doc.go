// Package storage provides the local checkpoint journal.
//
// The journal is an append-only record of every broadcast made by this tool and of
// how far its confirmation and reporting got. It makes resumption checkpoints survive
// a lost terminal: a later run for the same action file refuses to broadcast again
// while an earlier broadcast is unresolved, and `ampconfirm journal list` shows the
// checkpoint to resume with.
//
// # Journal URI Format
//
// Journals are selected with a location URI:
//
//   - file:///var/lib/ampconfirm/journal.jsonl - JSON lines, one record per line
//   - sqlite:///var/lib/ampconfirm/journal.db  - sqlite database
//   - file://./journal.jsonl                   - paths relative to the working directory
//   - none (or an empty string)                - journaling disabled
//
// # Durability
//
// The file journal opens its file with O_APPEND and syncs after every record. The
// sqlite journal commits every record in its own statement.
package storage
