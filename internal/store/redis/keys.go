package redis

import "strconv"

const (
	// KeyPrefixVideo is the prefix for video records (JSON strings)
	KeyPrefixVideo = "videostream:video:"
	// KeyPrefixCache is the prefix for read-through cache entries
	KeyPrefixCache = "videostream:cache:video:"
	// KeyPrefixCacheGen is the prefix for per-video cache generation counters
	KeyPrefixCacheGen = "videostream:cache:gen:"
	// KeyVideoSeq is the INCR counter handing out video ids
	KeyVideoSeq = "videostream:videos:seq"
	// KeyVideosByCreated is the sorted set of video ids scored by creation time
	KeyVideosByCreated = "videostream:videos:by_created"
)

// VideoKey returns the Redis key holding a video record.
func VideoKey(id int64) string {
	return KeyPrefixVideo + strconv.FormatInt(id, 10)
}

// CacheKey returns the Redis key caching a video looked up through CachedRepository.
func CacheKey(id int64) string {
	return KeyPrefixCache + strconv.FormatInt(id, 10)
}

// CacheGenKey returns the Redis key counting cache invalidations of a video.
func CacheGenKey(id int64) string {
	return KeyPrefixCacheGen + strconv.FormatInt(id, 10)
}
