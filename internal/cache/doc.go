// Package cache stores backend responses on disk with a TTL.
//
// Entries live as JSON files under the cache directory (by default
// ~/.ecodetect/cache). Keys are xxhash digests of the request path and its
// normalised query parameters, so equivalent requests share an entry.
// Expired entries are removed when read and by CleanupExpired. When the
// directory grows past its size limit the oldest entries are evicted.
package cache
