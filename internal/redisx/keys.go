package redisx

import "time"

const (
	// dedup:{service}:{id}, id is the list id for payments
	KeyDedup = "dedup:%s:%s"
)

var TTLDedup = 48 * time.Hour
