package storage

import "github.com/yndnr/minikv/pkg/sds"

// Kind identifies the type of a stored value.
type Kind uint8

// Value kinds.
const (
	KindString Kind = iota + 1
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Object is a stored value. Payload is owned by the dictionary entry
// holding the object and is never handed out directly.
type Object struct {
	Kind    Kind
	Payload *sds.String
}

// newStringObject returns a STRING object holding a copy of b.
func newStringObject(b []byte) *Object {
	return &Object{Kind: KindString, Payload: sds.New(b)}
}
