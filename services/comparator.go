package services

import (
	"bytes"
	"encoding/json"

	"pinpoint-notes/pinpoint/models"

	"github.com/google/uuid"
)

// ChangeClass is the comparator's verdict for one incoming note state.
type ChangeClass string

// Change classifications
const (
	ChangeCreate       ChangeClass = "create"
	ChangeNoop         ChangeClass = "noop"
	ChangeUpdate       ChangeClass = "update"
	ChangeConflict     ChangeClass = "conflict"
	ChangeIdentityGone ChangeClass = "identity_gone"
)

// IncomingNote is one client-asserted note state, decoded from a push entry.
// BasisVersion is the version the client believes it is updating from; zero
// means the client is creating the note.
type IncomingNote struct {
	ClientNoteID int64
	ServerID     uuid.UUID
	Payload      []byte
	Metadata     json.RawMessage
	BasisVersion int64
}

// ClassifyChange compares an incoming client state against the stored record
// for the same (owner, client note id). stored is nil when no record exists;
// identityGone reports whether that identity was hard-deleted.
//
// The checks run in a fixed sequence: identity existence, then idempotent
// replay, then staleness. A retransmission of an already-applied entry must
// be recognized before the basis version is inspected, otherwise safe
// replays would be reported as conflicts.
func ClassifyChange(stored *models.EncryptedNote, identityGone bool, incoming IncomingNote) ChangeClass {
	if stored == nil {
		if identityGone {
			return ChangeIdentityGone
		}
		return ChangeCreate
	}

	if bytes.Equal(stored.EncryptedData, incoming.Payload) && bytes.Equal(stored.Metadata, incoming.Metadata) {
		return ChangeNoop
	}

	if stored.Version > incoming.BasisVersion {
		return ChangeConflict
	}

	return ChangeUpdate
}
