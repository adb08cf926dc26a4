package db

import "errors"

var (
	// ErrKeyExists is returned by SetNX when the key is already taken.
	ErrKeyExists = errors.New("db: key already exists")
	// ErrIndexNotFound means the FT index has not been created.
	ErrIndexNotFound = errors.New("db: index not found")
	// ErrIndexExists is returned by CreateIndex for a duplicate name.
	ErrIndexExists = errors.New("db: index already exists")
)

// Commands reported in Error.Op.
const (
	OpCreateIndex = "FT.CREATE"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpDel         = "DEL"
	OpHSet        = "HSET"
	OpSetNX       = "SET NX"
)

// Error is a backend failure of one command against one index or key.
// Target is empty for multi-key commands.
type Error struct {
	Op     string
	Target string
	Err    error
}

func (e *Error) Error() string {
	if e.Target == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Target + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
