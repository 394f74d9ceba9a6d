package cache

// ScopedKeyer wraps a Keyer with a prefix.
// The registry client scopes keys by registry host so that a private mirror
// and the public registry never serve each other's metadata:
//
//	mirror := NewScopedKeyer(NewDefaultKeyer(), "npm.internal.example:")
//	public := NewScopedKeyer(NewDefaultKeyer(), "registry.npmjs.org:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}
