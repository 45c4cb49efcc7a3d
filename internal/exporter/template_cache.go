package exporter

import (
	"context"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/citydb/internal/scratch"
	"github.com/mesh-intelligence/citydb/pkg/geometry"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

// DefaultTemplateCacheSize is the number of templates kept on the heap.
const DefaultTemplateCacheSize = 1024

// TemplateRecord is the stored form of an implicit geometry template.
type TemplateRecord struct {
	ObjectID      string `json:"objectId,omitempty"`
	MimeType      string `json:"mimeType,omitempty"`
	LibraryObject []byte `json:"libraryObject,omitempty"`
	WKT           string `json:"wkt,omitempty"`
	Properties    []byte `json:"properties,omitempty"`
}

func (r *TemplateRecord) decode(id int64) (*types.ImplicitGeometry, error) {
	ig := &types.ImplicitGeometry{
		ID:            id,
		ObjectID:      r.ObjectID,
		MimeType:      r.MimeType,
		LibraryObject: r.LibraryObject,
	}
	if r.WKT != "" {
		g, err := geometry.DecodeStored(r.WKT, r.Properties)
		if err != nil {
			return nil, fmt.Errorf("%w: template %d: %v", types.ErrBuild, id, err)
		}
		ig.Geometry = g
	}
	return ig, nil
}

// TemplateLoader reads the templates with the given row ids. Missing ids
// are absent from the result.
type TemplateLoader func(ctx context.Context, ids []int64) (map[int64]*TemplateRecord, error)

// TemplateCache keeps encoded implicit geometry templates in an LRU and
// spills evicted entries to a scratch store, so a template is read from the
// database once per export. Get returns a fresh instance on every call
// because export units must not share mutable objects. It is safe for
// concurrent use.
type TemplateCache struct {
	recent *lru.Cache[int64, []byte]
	spill  *scratch.Store
	load   TemplateLoader
	log    *logrus.Entry
}

// NewTemplateCache returns a cache holding up to size templates on the
// heap. A nil spill store drops evicted templates instead.
func NewTemplateCache(size int, spill *scratch.Store, load TemplateLoader, log *logrus.Entry) (*TemplateCache, error) {
	if size < 1 {
		size = DefaultTemplateCacheSize
	}
	c := &TemplateCache{spill: spill, load: load, log: log}
	recent, err := lru.NewWithEvict[int64, []byte](size, c.evicted)
	if err != nil {
		return nil, fmt.Errorf("creating template cache: %w", err)
	}
	c.recent = recent
	return c, nil
}

func templateKey(id int64) string { return "template:" + strconv.FormatInt(id, 10) }

func (c *TemplateCache) evicted(id int64, data []byte) {
	if c.spill == nil {
		return
	}
	if err := c.spill.Put(templateKey(id), data); err != nil {
		c.log.WithError(err).WithField("template", id).Warn("spilling template")
	}
}

// Get returns the templates with the given row ids. Ids unknown to the
// database are absent from the result.
func (c *TemplateCache) Get(ctx context.Context, ids []int64) (map[int64]*types.ImplicitGeometry, error) {
	out := make(map[int64]*types.ImplicitGeometry, len(ids))
	var missing []int64
	for _, id := range ids {
		data, ok, err := c.cached(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, id)
			continue
		}
		var rec TemplateRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("%w: template %d: %v", types.ErrBuild, id, err)
		}
		ig, err := rec.decode(id)
		if err != nil {
			return nil, err
		}
		out[id] = ig
	}
	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := c.load(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, rec := range loaded {
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: template %d: %v", types.ErrBuild, id, err)
		}
		c.recent.Add(id, data)
		ig, err := rec.decode(id)
		if err != nil {
			return nil, err
		}
		out[id] = ig
	}
	return out, nil
}

func (c *TemplateCache) cached(id int64) ([]byte, bool, error) {
	if data, ok := c.recent.Get(id); ok {
		return data, true, nil
	}
	if c.spill == nil {
		return nil, false, nil
	}
	data, ok, err := c.spill.Get(templateKey(id))
	if err != nil {
		return nil, false, fmt.Errorf("reading spilled template %d: %w", id, err)
	}
	if ok {
		c.recent.Add(id, data)
	}
	return data, ok, nil
}

// Len returns the number of templates held on the heap.
func (c *TemplateCache) Len() int { return c.recent.Len() }
