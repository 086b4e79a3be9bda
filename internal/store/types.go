package store

import "time"

// Run records one shrink session against a directory tree.
type Run struct {
	ID         int64
	StartedAt  time.Time
	Root       string
	MaxWidth   int
	Processed  int
	Skipped    int
	Failed     int
	BytesSaved int64
}

// Operation records one attempted replacement within a run. Skipped
// candidates are counted on the run and never get a row here.
type Operation struct {
	ID         int64
	RunID      int64
	RelPath    string
	OrigWidth  int
	OrigHeight int
	NewWidth   int
	NewHeight  int
	OrigBytes  int64
	NewBytes   int64
	BackupPath string
	Status     string // "committed", "rolled_back", "data_risk", or "failed"
	Detail     string
}

// BytesSaved returns how many bytes the operation recovered. Negative
// when the rewritten file came out larger than the original.
func (o *Operation) BytesSaved() int64 {
	return o.OrigBytes - o.NewBytes
}
