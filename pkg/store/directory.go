package store

import (
	"net/url"
	"sort"

	"github.com/arthur-debert/objstore/pkg/typeinfo"
)

// objectsPrefix is the blob namespace entries live under.
const objectsPrefix = "objects/"

// addressHashLen is how much of the checksum names a value's blob.
const addressHashLen = 16

// Entry is the Directory record for one key.
type Entry struct {
	name     string
	desc     typeinfo.Descriptor
	address  string
	checksum string
	owned    any
}

// Name returns the key.
func (e *Entry) Name() string { return e.name }

// Address returns the backend blob name holding the entry's bytes.
func (e *Entry) Address() string { return e.address }

// Descriptor returns the type descriptor recorded at write time.
func (e *Entry) Descriptor() typeinfo.Descriptor { return e.desc }

// Owned returns the object the store co-owns for this entry, or nil.
func (e *Entry) Owned() any { return e.owned }

// persisted reports whether the entry's bytes reached the backend.
func (e *Entry) persisted() bool { return e.checksum != "" }

// Directory maps key names to entries. It is not safe for concurrent use;
// Store serializes access to it.
type Directory struct {
	entries map[string]*Entry
}

func newDirectory() *Directory {
	return &Directory{entries: make(map[string]*Entry)}
}

// Find looks up the entry for name.
func (d *Directory) Find(name string) (*Entry, bool) {
	e, ok := d.entries[name]
	return e, ok
}

// Add registers name with desc, replacing any previous entry of that name.
// A non-nil owned makes the store a co-owner of that object; nil drops any
// object a previous entry owned.
func (d *Directory) Add(name string, owned any, desc typeinfo.Descriptor) *Entry {
	e, ok := d.entries[name]
	if !ok {
		e = &Entry{name: name}
		d.entries[name] = e
	}
	if e.desc.Name() != desc.Name() {
		e.checksum = ""
	}
	e.desc = desc
	e.owned = owned
	return e
}

// Names returns every key in sorted order.
func (d *Directory) Names() []string {
	names := make([]string, 0, len(d.entries))
	for name := range d.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of entries.
func (d *Directory) Len() int { return len(d.entries) }

func (d *Directory) restore(name string, desc typeinfo.Descriptor, address, checksum string) {
	d.entries[name] = &Entry{name: name, desc: desc, address: address, checksum: checksum}
}

// addressFor names the blob holding one value of name. Every distinct
// value gets its own blob, so writing never touches the blob the last
// flushed header points to.
func addressFor(name, sum string) string {
	return objectsPrefix + url.PathEscape(name) + "/" + sum[:addressHashLen]
}
