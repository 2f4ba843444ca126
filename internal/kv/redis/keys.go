package redis

const (
	// KeyPrefix namespaces every key written by kbase
	KeyPrefix = "kbase:"
)

// DocumentKey returns the Redis key holding the document stored under name
func DocumentKey(name string) string {
	return KeyPrefix + name
}
