package cache

import "fmt"

func BlueprintKey(blueprintID string) string {
	return fmt.Sprintf("blueprint:%s", blueprintID)
}

// RateLimitKey buckets a client per route group and minute window.
func RateLimitKey(group, clientIP string, window int64) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", group, clientIP, window)
}
