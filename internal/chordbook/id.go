package chordbook

import (
	"fmt"
	"strings"
)

const localIDPrefix = "local_"

type idKind uint8

const (
	idRemote idKind = iota + 1
	idLocal
)

// EntityID identifies a playbook or song. An id is either local, minted on
// the device for an entity the server has not acknowledged yet, or remote,
// assigned by the server. The two variants never change into each other; a
// record moves from a local id to a remote id only through Cache migration.
type EntityID struct {
	kind  idKind
	value string
}

// LocalID returns a device-minted id. The token is usually a millisecond timestamp.
func LocalID(token string) EntityID {
	return EntityID{kind: idLocal, value: token}
}

// RemoteID returns a server-assigned id.
func RemoteID(id string) EntityID {
	return EntityID{kind: idRemote, value: id}
}

// ParseEntityID decodes the form produced by String. It is only used at
// persistence and wire boundaries.
func ParseEntityID(s string) EntityID {
	if s == "" {
		return EntityID{}
	}
	if token, ok := strings.CutPrefix(s, localIDPrefix); ok && token != "" {
		return LocalID(token)
	}
	return RemoteID(s)
}

func (id EntityID) IsZero() bool   { return id.kind == 0 }
func (id EntityID) IsLocal() bool  { return id.kind == idLocal }
func (id EntityID) IsRemote() bool { return id.kind == idRemote }

// Remote returns the server id when id is remote.
func (id EntityID) Remote() (string, bool) {
	if id.kind != idRemote {
		return "", false
	}
	return id.value, true
}

func (id EntityID) String() string {
	switch id.kind {
	case idLocal:
		return localIDPrefix + id.value
	case idRemote:
		return id.value
	default:
		return ""
	}
}

func (id EntityID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *EntityID) UnmarshalText(text []byte) error {
	*id = ParseEntityID(string(text))
	return nil
}

// migrationTarget checks that from -> to is a legal local-to-remote transition.
func migrationTarget(from, to EntityID) error {
	if !from.IsLocal() {
		return fmt.Errorf("cannot migrate %q: not a local id", from)
	}
	if !to.IsRemote() {
		return fmt.Errorf("cannot migrate %q to %q: target is not a server id", from, to)
	}
	return nil
}
