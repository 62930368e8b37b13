package gate

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Region names for the two render paths of a gated page.
const (
	RegionGatedContent      = "gated_content"
	RegionGatedContentLogin = "gated_content_login"
)

// Detector reports whether the content identified by contentRef hosts gated
// content.
type Detector interface {
	IsGatedContentPresent(ctx context.Context, contentRef string) (bool, error)
}

// RegionFor picks the region an authenticated (or anonymous) viewer should
// see. Non-gated content has no region at all.
func RegionFor(gated, authenticated bool) string {
	if !gated {
		return ""
	}
	if authenticated {
		return RegionGatedContent
	}
	return RegionGatedContentLogin
}

// StaticDetector answers from a fixed set of gated content refs.
type StaticDetector struct {
	mu    sync.RWMutex
	gated map[string]bool
}

// NewStaticDetector builds a detector where exactly the given refs are
// gated.
func NewStaticDetector(refs ...string) *StaticDetector {
	gated := make(map[string]bool, len(refs))
	for _, ref := range refs {
		gated[ref] = true
	}
	return &StaticDetector{gated: gated}
}

func (d *StaticDetector) IsGatedContentPresent(_ context.Context, contentRef string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.gated[contentRef], nil
}

// SetGated marks or unmarks a ref as gated.
func (d *StaticDetector) SetGated(contentRef string, gated bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gated {
		d.gated[contentRef] = true
	} else {
		delete(d.gated, contentRef)
	}
}

// CachingDetector memoizes another detector's answers in a bounded LRU.
// Errors are never cached.
type CachingDetector struct {
	inner Detector
	cache *lru.Cache[string, bool]
}

// NewCachingDetector wraps inner with an LRU of the given size.
func NewCachingDetector(inner Detector, size int) (*CachingDetector, error) {
	cache, err := lru.New[string, bool](size)
	if err != nil {
		return nil, err
	}
	return &CachingDetector{inner: inner, cache: cache}, nil
}

func (d *CachingDetector) IsGatedContentPresent(ctx context.Context, contentRef string) (bool, error) {
	if gated, ok := d.cache.Get(contentRef); ok {
		return gated, nil
	}
	gated, err := d.inner.IsGatedContentPresent(ctx, contentRef)
	if err != nil {
		return false, err
	}
	d.cache.Add(contentRef, gated)
	return gated, nil
}

// Invalidate drops a cached answer, for when content changes.
func (d *CachingDetector) Invalidate(contentRef string) {
	d.cache.Remove(contentRef)
}
