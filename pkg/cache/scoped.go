package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// The server uses it to give each tracked site its own cache namespace,
// so identical event batches from different sites never collide.
//
// Example usage:
//
//	siteKeyer := NewScopedKeyer(NewDefaultKeyer(), "site:shop-eu:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// GraphKey generates a prefixed key for built graphs.
func (k *ScopedKeyer) GraphKey(eventsHash string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(eventsHash, opts)
}

// LayoutKey generates a prefixed key for computed layouts.
func (k *ScopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(graphHash, opts)
}

// PathsKey generates a prefixed key for path search results.
func (k *ScopedKeyer) PathsKey(graphHash string, opts PathsKeyOpts) string {
	return k.prefix + k.inner.PathsKey(graphHash, opts)
}
