package cache

import "fmt"

// GenerateKey builds "{prefix}:{id}", e.g. "games:1610612747".
func GenerateKey(prefix string, id interface{}) string {
	return fmt.Sprintf("%s:%v", prefix, id)
}
