// Package id defines the prefixed, K-sortable identifiers startflow hands
// out for runs, checkpoints, intercepted calls and proxies.
//
// An ID prints as "prefix_suffix" where the suffix is a base32 UUIDv7, so
// IDs sort by creation time and their prefix names what they identify.
package id

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix names the kind of thing an ID identifies.
type Prefix string

const (
	PrefixRun        Prefix = "wfrun"
	PrefixCheckpoint Prefix = "ckpt"
	PrefixInvocation Prefix = "inv"
	PrefixProxy      Prefix = "prx"
)

// ID is a prefixed TypeID. The zero value is the nil ID and prints as "".
type ID struct {
	tid typeid.TypeID
	set bool
}

// RunID is the process-instance handle returned by a start.
type RunID = ID

// CheckpointID identifies a saved step result.
type CheckpointID = ID

// InvocationID correlates one intercepted call with the start it causes.
type InvocationID = ID

// ProxyID identifies a proxy built around a component.
type ProxyID = ID

// New returns a fresh ID for prefix. The prefixes above are all valid, so
// an error here means a caller passed a malformed one.
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: generate %q: %v", prefix, err))
	}
	return ID{tid: tid, set: true}
}

func NewRunID() RunID { return New(PrefixRun) }
func NewCheckpointID() CheckpointID { return New(PrefixCheckpoint) }
func NewInvocationID() InvocationID { return New(PrefixInvocation) }
func NewProxyID() ProxyID { return New(PrefixProxy) }

// ParseRunID parses s, which must carry the run prefix. Stores use it to
// read back the IDs they persisted as text.
func ParseRunID(s string) (RunID, error) { return parseAs(s, PrefixRun) }

// ParseCheckpointID parses s, which must carry the checkpoint prefix.
func ParseCheckpointID(s string) (CheckpointID, error) { return parseAs(s, PrefixCheckpoint) }

func parseAs(s string, want Prefix) (ID, error) {
	i, err := parse(s)
	if err != nil {
		return ID{}, err
	}
	if got := i.Prefix(); got != want {
		return ID{}, fmt.Errorf("id: %q has prefix %q, want %q", s, got, want)
	}
	return i, nil
}

func parse(s string) (ID, error) {
	if s == "" {
		return ID{}, fmt.Errorf("id: empty string")
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return ID{}, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{tid: tid, set: true}, nil
}

func (i ID) String() string {
	if !i.set {
		return ""
	}
	return i.tid.String()
}

// Prefix returns the kind prefix, or "" for the nil ID.
func (i ID) Prefix() Prefix {
	if !i.set {
		return ""
	}
	return Prefix(i.tid.Prefix())
}

// IsNil reports whether i is the zero ID.
func (i ID) IsNil() bool { return !i.set }

// MarshalText encodes the nil ID as empty text so JSON carries "".
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText accepts any prefix; empty text yields the nil ID.
func (i *ID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*i = ID{}
		return nil
	}
	parsed, err := parse(string(b))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
