// Package resource defines the tenancy key shared by every persisted record
// in the storage layer (spec §3).
package resource

import "fmt"

// ID is the tenancy key carried by every persisted record. Equality and
// hashing are structural: ID is comparable and usable directly as a map
// key, so two IDs with the same Namespace and Name are indistinguishable to
// storage and coordinator code.
type ID struct {
	Namespace string
	Name      string
}

// New constructs a resource ID from a namespace and name.
func New(namespace, name string) ID {
	return ID{Namespace: namespace, Name: name}
}

// String renders the ID as "namespace/name" for logging and diagnostics.
func (r ID) String() string {
	return fmt.Sprintf("%s/%s", r.Namespace, r.Name)
}

// Zero reports whether r is the zero-valued ID (no namespace and no name).
func (r ID) Zero() bool {
	return r.Namespace == "" && r.Name == ""
}
