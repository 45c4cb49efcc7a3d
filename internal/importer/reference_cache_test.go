// Tests for the session reference cache.
package importer

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/citydb/pkg/types"
)

func TestReferenceBeforeTargetResolves(t *testing.T) {
	c := NewReferenceCache().Cache(CacheAddress)

	c.PutReference(*types.NewReference("addr-1", types.ReferenceXLink), 10)
	resolved, unresolved := c.Resolve()
	assert.Empty(t, resolved)
	assert.Len(t, unresolved, 1)

	c.PutTarget("addr-1", 99)
	resolved, unresolved = c.Resolve()
	assert.Equal(t, []Link{{RowID: 10, TargetID: 99}}, resolved)
	assert.Empty(t, unresolved)
}

func TestTargetBeforeReferenceResolves(t *testing.T) {
	c := NewReferenceCache().Cache(CacheFeature)

	c.PutTarget("bldg-1", 7)
	c.PutReference(*types.NewReference("#bldg-1", types.ReferenceXLink), 3)

	resolved, unresolved := c.Resolve()
	assert.Equal(t, []Link{{RowID: 3, TargetID: 7}}, resolved)
	assert.Empty(t, unresolved)

	id, ok := c.Lookup("#bldg-1")
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)
}

func TestPutTargetIfAbsent(t *testing.T) {
	c := NewReferenceCache().Cache(CacheImplicitGeometry)

	assert.True(t, c.PutTargetIfAbsent("tpl", 1))
	assert.False(t, c.PutTargetIfAbsent("tpl", 2))
	assert.False(t, c.PutTargetIfAbsent("", 3))

	id, _ := c.Lookup("tpl")
	assert.Equal(t, int64(1), id)
}

func TestReleaseOnlyDropsOwnClaim(t *testing.T) {
	c := NewReferenceCache().Cache(CacheAddress)
	assert.True(t, c.PutTargetIfAbsent("addr", 1))

	c.Release("addr", 2)
	_, ok := c.Lookup("addr")
	assert.True(t, ok, "a release for another row keeps the claim")

	c.Release("addr", 1)
	_, ok = c.Lookup("addr")
	assert.False(t, ok)
	assert.True(t, c.PutTargetIfAbsent("addr", 3))
}

func TestCachesAreSeparatedByType(t *testing.T) {
	rc := NewReferenceCache()
	rc.Cache(CacheFeature).PutTarget("x", 1)

	_, ok := rc.Cache(CacheAddress).Lookup("x")
	assert.False(t, ok)
	assert.Equal(t, "address", CacheAddress.String())
	assert.Equal(t, "val_address_id", CacheAddress.linkColumn())
	assert.Equal(t, "val_appearance_id", CacheAppearance.linkColumn())
	assert.Equal(t, "val_geometry_id", CacheGeometry.linkColumn())
}

func TestCacheConcurrentUse(t *testing.T) {
	c := NewReferenceCache().Cache(CacheFeature)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("f-%d", i)
			c.PutReference(*types.NewReference(id, types.ReferenceXLink), int64(1000+i))
			c.PutTarget(id, int64(i))
		}(i)
	}
	wg.Wait()

	resolved, unresolved := c.Resolve()
	assert.Len(t, resolved, 50)
	assert.Empty(t, unresolved)
	targets, refs := c.Len()
	assert.Equal(t, 50, targets)
	assert.Equal(t, 50, refs)
}
