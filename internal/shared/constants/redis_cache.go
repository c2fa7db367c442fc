package constants

import "time"

// Redis Cache Configuration
// This file centralizes all Redis cache keys and TTL values for the hallbook application
// Pattern: hallbook:{module}:{operation}:{identifier?}

// ================== CACHE TTL DURATIONS ==================

// Semi-Static Data (Medium TTL: changes occasionally)
const (
	TTL_SEMI_STATIC_SHORT = 1 * time.Hour // 1 hour - for hall layout metadata
)

// Dynamic Data (Short TTL: changes frequently)
const (
	TTL_DYNAMIC_MEDIUM = 10 * time.Minute // 10 minutes - for registration exports
	TTL_DYNAMIC_SHORT  = 5 * time.Minute  // 5 minutes - for admin stats
)

// Highly Dynamic (Micro TTL: real-time sensitive)
const (
	TTL_REALTIME_SHORT = 30 * time.Second // 30 seconds - for live seat counts
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "hallbook"
)

// ================== SEATS MODULE ==================

// Seat Cache Keys
const (
	// Full seat map snapshot (JSON-encoded map keyed by seat id)
	CACHE_KEY_SEAT_MAP = CACHE_PREFIX + ":seats:map"

	// Availability counts per tier
	CACHE_KEY_SEAT_COUNTS = CACHE_PREFIX + ":seats:counts"
)

// Seat Cache TTLs
const (
	TTL_SEAT_MAP    = TTL_REALTIME_SHORT // 30 seconds
	TTL_SEAT_COUNTS = TTL_REALTIME_SHORT // 30 seconds
)

// ================== ADMIN MODULE ==================

// Admin Cache Keys
const (
	CACHE_KEY_ADMIN_STATS  = CACHE_PREFIX + ":admin:stats"
	CACHE_KEY_ADMIN_EXPORT = CACHE_PREFIX + ":admin:export:csv"
)

// Admin Cache TTLs
const (
	TTL_ADMIN_STATS  = TTL_DYNAMIC_SHORT  // 5 minutes
	TTL_ADMIN_EXPORT = TTL_DYNAMIC_MEDIUM // 10 minutes
)

// ================== PUB/SUB CHANNELS ==================

const (
	// Published on every seat mutation so other instances refresh their snapshot
	CHANNEL_SEATS_CHANGED = CACHE_PREFIX + ":seats:changed"
)

// ================== CACHE INVALIDATION PATTERNS ==================

const (
	PATTERN_INVALIDATE_SEATS_ALL = CACHE_PREFIX + ":seats:*"
	PATTERN_INVALIDATE_ADMIN_ALL = CACHE_PREFIX + ":admin:*"
)
