package proc

import (
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"
)

// Bucket is one of the fixed catalog categories.
type Bucket string

const (
	BucketGames     Bucket = "games"
	BucketAdvanced  Bucket = "advanced"
	BucketTools     Bucket = "tools"
	BucketThemes    Bucket = "themes"
	BucketEmulators Bucket = "emulators"
)

// Buckets lists every bucket in display order.
var Buckets = []Bucket{BucketGames, BucketAdvanced, BucketTools, BucketThemes, BucketEmulators}

func (b Bucket) Valid() bool {
	switch b {
	case BucketGames, BucketAdvanced, BucketTools, BucketThemes, BucketEmulators:
		return true
	}
	return false
}

// Package is one catalog entry. Every descriptive field is optional.
type Package struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
	DetailsText string `json:"details,omitempty"`
	Version     string `json:"version,omitempty"`
	License     string `json:"license,omitempty"`

	raw []byte
}

// Field looks a field up by name in the record as it was received, then in the typed
// fields, which carry values filled in at load time such as an inherited category.
// Missing and null fields report false; they never produce an error.
func (p *Package) Field(name string) (string, bool) {
	if len(p.raw) > 0 {
		res := gjson.GetBytes(p.raw, gjson.Escape(name))
		if res.Exists() && res.Type != gjson.Null {
			return res.String(), true
		}
	}
	return p.knownField(name)
}

func (p *Package) knownField(name string) (string, bool) {
	var v string
	switch name {
	case "name":
		v = p.Name
	case "title":
		v = p.Title
	case "category":
		v = p.Category
	case "author":
		v = p.Author
	case "description":
		v = p.Description
	case "details":
		v = p.DetailsText
	case "version":
		v = p.Version
	case "license":
		v = p.License
	}
	return v, v != ""
}

// Details prefers the long details text and falls back to the description.
func (p *Package) Details() string {
	if p.DetailsText != "" {
		return p.DetailsText
	}
	return p.Description
}

// Snapshot is an immutable view of the catalog. It is replaced, never mutated.
type Snapshot struct {
	All      []*Package
	LoadedAt time.Time

	buckets map[Bucket][]*Package
}

var emptySnapshot = &Snapshot{buckets: map[Bucket][]*Package{}}

func newSnapshot(all []*Package, loadedAt time.Time) *Snapshot {
	s := &Snapshot{
		All:      all,
		LoadedAt: loadedAt,
		buckets:  make(map[Bucket][]*Package, len(Buckets)),
	}
	for _, p := range all {
		if b := Bucket(p.Category); b.Valid() {
			s.buckets[b] = append(s.buckets[b], p)
		}
	}
	return s
}

func (s *Snapshot) Bucket(b Bucket) []*Package {
	return s.buckets[b]
}

// Store holds the live snapshot behind an atomic pointer.
type Store struct {
	current atomic.Pointer[Snapshot]
	now     func() time.Time
}

func NewStore() *Store {
	s := &Store{now: time.Now}
	s.current.Store(emptySnapshot)
	return s
}

// Snapshot returns the live snapshot; never nil.
func (s *Store) Snapshot() *Snapshot {
	if snap := s.current.Load(); snap != nil {
		return snap
	}
	return emptySnapshot
}

// Load parses a catalog document and swaps it in. On error the previous snapshot stays live.
//
// An object document contributes every top-level array of records, in document order.
// Records without a category inherit the key they were listed under when it names a bucket.
// An array document is taken as the record list itself.
// Records without a name count toward Size but cannot be looked up.
func (s *Store) Load(document []byte) error {
	if !gjson.ValidBytes(document) {
		return &MalformedCatalogError{Reason: "document is not valid JSON"}
	}

	root := gjson.ParseBytes(document)
	var all []*Package

	switch {
	case root.IsObject():
		root.ForEach(func(key, value gjson.Result) bool {
			if value.IsArray() {
				all = appendRecords(all, value, Bucket(key.String()))
			}
			return true
		})
	case root.IsArray():
		all = appendRecords(all, root, "")
	default:
		return &MalformedCatalogError{Reason: "document is " + describeType(root)}
	}

	s.current.Store(newSnapshot(all, s.now()))
	return nil
}

func appendRecords(all []*Package, list gjson.Result, listedUnder Bucket) []*Package {
	list.ForEach(func(_, rec gjson.Result) bool {
		if !rec.IsObject() {
			return true
		}
		raw := []byte(rec.Raw)
		var p Package
		if err := json.Unmarshal(raw, &p); err != nil {
			// Fields of an unexpected type; fall back to lookups through the raw record.
			p = Package{}
			p.raw = raw
			p.Name, _ = p.Field("name")
			p.Title, _ = p.Field("title")
			p.Category, _ = p.Field("category")
			p.Author, _ = p.Field("author")
			p.Description, _ = p.Field("description")
			p.DetailsText, _ = p.Field("details")
			p.Version, _ = p.Field("version")
			p.License, _ = p.Field("license")
		}
		if p.Category == "" && listedUnder.Valid() {
			p.Category = string(listedUnder)
		}
		p.raw = raw
		all = append(all, &p)
		return true
	})
	return all
}

func describeType(r gjson.Result) string {
	switch r.Type {
	case gjson.Null:
		return "null"
	case gjson.String:
		return "a string"
	case gjson.Number:
		return "a number"
	case gjson.True, gjson.False:
		return "a boolean"
	}
	return "not a JSON structure"
}

// Size is the number of packages in the live snapshot.
func (s *Store) Size() int {
	return len(s.Snapshot().All)
}

// Find returns the first package whose name matches exactly, else the first whose title does.
func (s *Store) Find(nameOrTitle string) (*Package, bool) {
	snap := s.Snapshot()
	if nameOrTitle == "" {
		return nil, false
	}
	for _, p := range snap.All {
		if p.Name == nameOrTitle {
			return p, true
		}
	}
	for _, p := range snap.All {
		if p.Title == nameOrTitle && p.Name != "" {
			return p, true
		}
	}
	return nil, false
}

// ListNames returns the names in a bucket, in catalog order. Nameless records are counted
// but have nothing to list.
func (s *Store) ListNames(b Bucket) []string {
	pkgs := s.Snapshot().Bucket(b)
	names := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		if p.Name != "" {
			names = append(names, p.Name)
		}
	}
	return names
}

// Search matches term case-insensitively against the given fields of every package.
// A package matches when any field contains the term; fields a record lacks are skipped.
func (s *Store) Search(term string, fields []string) []string {
	needle := strings.ToLower(term)
	var names []string
	for _, p := range s.Snapshot().All {
		if p.Name == "" {
			continue
		}
		for _, f := range fields {
			v, ok := p.Field(f)
			if ok && strings.Contains(strings.ToLower(v), needle) {
				names = append(names, p.Name)
				break
			}
		}
	}
	return names
}
