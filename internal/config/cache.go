package config

import "time"

// CacheConfig controls the response cache applied to public content GETs
// (blog, services, careers, partners). Entries are short-lived; admin
// mutations simply wait out the TTL rather than invalidating.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads cache settings from the environment.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", time.Minute),
		Prefix:       envStr("CACHE_PREFIX", "pubcache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
