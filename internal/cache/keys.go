package cache

import "strings"

// keyPrefix namespaces every cache key written by this application.
const keyPrefix = "annoforge"

// GenerateCacheKey builds a namespaced cache key of the form
// annoforge:<service>:<objectType>:<identifier>[:<param1>_<param2>...].
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	parts := []string{keyPrefix, serviceName, objectType, identifier}
	key := strings.Join(parts, ":")
	if len(paramsKey) > 0 {
		key = key + ":" + strings.Join(paramsKey, "_")
	}
	return key
}
