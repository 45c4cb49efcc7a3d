package importer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mesh-intelligence/citydb/pkg/types"
)

// CacheType selects the category of referenced objects.
type CacheType int

// Cache types.
const (
	CacheFeature CacheType = iota
	CacheGeometry
	CacheImplicitGeometry
	CacheAppearance
	CacheAddress
)

var cacheTypes = []CacheType{CacheFeature, CacheGeometry, CacheImplicitGeometry, CacheAppearance, CacheAddress}

func (c CacheType) String() string {
	switch c {
	case CacheFeature:
		return "feature"
	case CacheGeometry:
		return "geometry"
	case CacheImplicitGeometry:
		return "implicit_geometry"
	case CacheAppearance:
		return "appearance"
	case CacheAddress:
		return "address"
	}
	return fmt.Sprintf("CacheType(%d)", int(c))
}

// linkColumn is the property column that holds references of this type.
func (c CacheType) linkColumn() string {
	switch c {
	case CacheFeature:
		return "val_feature_id"
	case CacheGeometry:
		return "val_geometry_id"
	case CacheImplicitGeometry:
		return "val_implicitgeom_id"
	case CacheAppearance:
		return "val_appearance_id"
	case CacheAddress:
		return "val_address_id"
	}
	return ""
}

// Link is a resolved reference: the row RowID must point at TargetID.
type Link struct {
	RowID    int64
	TargetID int64
}

// PendingReference is a reference recorded for a row.
type PendingReference struct {
	Reference types.Reference
	RowID     int64
}

// Cache maps external object ids to row ids for one CacheType and records
// the rows that refer to them. Targets and references may arrive in any
// order; Resolve matches them once both sides are known. It is safe for
// concurrent use.
type Cache struct {
	typ CacheType

	mu      sync.Mutex
	targets map[string]int64
	refs    []PendingReference
}

func newCache(typ CacheType) *Cache {
	return &Cache{typ: typ, targets: make(map[string]int64)}
}

// Type returns the category of the cache.
func (c *Cache) Type() CacheType { return c.typ }

// PutTarget records that externalID was assigned rowID. A later PutTarget
// for the same id replaces the earlier one.
func (c *Cache) PutTarget(externalID string, rowID int64) {
	if externalID == "" {
		return
	}
	c.mu.Lock()
	c.targets[targetKey(externalID)] = rowID
	c.mu.Unlock()
}

// PutTargetIfAbsent records externalID unless it is already known. It
// reports whether rowID was recorded.
func (c *Cache) PutTargetIfAbsent(externalID string, rowID int64) bool {
	if externalID == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := targetKey(externalID)
	if _, ok := c.targets[key]; ok {
		return false
	}
	c.targets[key] = rowID
	return true
}

// Release forgets externalID if it is still recorded for rowID. It undoes
// a claim whose row was never written.
func (c *Cache) Release(externalID string, rowID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := targetKey(externalID)
	if id, ok := c.targets[key]; ok && id == rowID {
		delete(c.targets, key)
	}
}

// PutReference records that row rowID refers to ref's target.
func (c *Cache) PutReference(ref types.Reference, rowID int64) {
	c.mu.Lock()
	c.refs = append(c.refs, PendingReference{Reference: ref, RowID: rowID})
	c.mu.Unlock()
}

// Lookup returns the row id recorded for externalID.
func (c *Cache) Lookup(externalID string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.targets[targetKey(externalID)]
	return id, ok
}

// Resolve matches every recorded reference against the known targets.
// References stay recorded, so Resolve may be called again after more
// targets are known.
func (c *Cache) Resolve() (resolved []Link, unresolved []PendingReference) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.refs {
		if id, ok := c.targets[targetKey(r.Reference.Target)]; ok {
			resolved = append(resolved, Link{RowID: r.RowID, TargetID: id})
		} else {
			unresolved = append(unresolved, r)
		}
	}
	return resolved, unresolved
}

// Len returns the number of targets and references.
func (c *Cache) Len() (targets, references int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.targets), len(c.refs)
}

// targetKey strips the fragment marker of xlink targets.
func targetKey(target string) string {
	return strings.TrimPrefix(target, "#")
}

// ReferenceCache holds one Cache per CacheType for an import session.
type ReferenceCache struct {
	caches map[CacheType]*Cache
}

// NewReferenceCache returns an empty cache for every CacheType.
func NewReferenceCache() *ReferenceCache {
	rc := &ReferenceCache{caches: make(map[CacheType]*Cache, len(cacheTypes))}
	for _, t := range cacheTypes {
		rc.caches[t] = newCache(t)
	}
	return rc
}

// Cache returns the cache of type t.
func (rc *ReferenceCache) Cache(t CacheType) *Cache { return rc.caches[t] }
