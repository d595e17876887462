package source

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/pable/go-padel-metrics/internal/model"
)

// Cached memoizes snapshots by source identity. Filters never take part in
// the key, so changing the cohort re-runs the pipeline over the same
// snapshot without re-reading the feed.
type Cached struct {
	cache *gocache.Cache
	log   logrus.FieldLogger
}

// NewCached returns a cache whose entries expire after ttl.
func NewCached(ttl time.Duration, log logrus.FieldLogger) *Cached {
	return &Cached{cache: gocache.New(ttl, 2*ttl), log: log}
}

// Load returns the cached snapshot for src, loading it on a miss. Failed
// loads are not cached.
func (c *Cached) Load(ctx context.Context, src Source) (*model.Snapshot, error) {
	if v, ok := c.cache.Get(src.ID()); ok {
		if snap, ok := v.(*model.Snapshot); ok {
			return snap, nil
		}
	}
	snap, err := Load(ctx, src, c.log)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(src.ID(), snap)
	return snap, nil
}

// Invalidate drops the snapshot of src so the next Load re-reads the feed.
func (c *Cached) Invalidate(src Source) {
	c.cache.Delete(src.ID())
}
