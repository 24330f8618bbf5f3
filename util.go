package main

import (
	"time"

	"github.com/google/uuid"
)

// GenerateUUID returns a random v4 UUID string, used for player and match IDs
func GenerateUUID() string {
	return uuid.NewString()
}

// nowMillis returns the wall clock in milliseconds, the timestamp unit used
// on the wire
func nowMillis() int64 {
	return time.Now().UnixMilli()
}
