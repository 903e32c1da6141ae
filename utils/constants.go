package utils

import "time"

// AuthCachePrefix is the prefix used for Redis identity cache keys.
const AuthCachePrefix = "auth:"

// AuthCacheTTL is the time-to-live for identity cache entries.
const AuthCacheTTL = 10 * time.Minute

// WindowCachePrefix namespaces the earliest-slot aggregation cache.
const WindowCachePrefix = "availability:earliest:"

// ContextIdentityKey is the gin context key holding the authenticated identity.
const ContextIdentityKey = "identity"

// ContextLoggerKey is the gin context key holding the request-scoped logger.
const ContextLoggerKey = "logger"
