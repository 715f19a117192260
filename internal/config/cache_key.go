package config

import "fmt"

type CacheKeyStruct struct{}

// TestPaperKey returns the cache key for a test's candidate-facing paper
// (test plus answer-stripped questions) at a given version.
func (r *CacheKeyStruct) TestPaperKey(testID, version int64) string {
	return fmt.Sprintf("test:%d:paper:v%d", testID, version)
}

// TestPaperVersionKey returns the key tracking a test's paper version.
// Incrementing it on any test or question mutation retires every cached
// paper for the test; stale versions fall out via TTL.
func (r *CacheKeyStruct) TestPaperVersionKey(testID int64) string {
	return fmt.Sprintf("test:%d:paper_version", testID)
}

// TestMonitorChannel returns the Pub/Sub channel carrying live session
// events for a test's monitor stream.
func (r *CacheKeyStruct) TestMonitorChannel(testID int64) string {
	return fmt.Sprintf("test:%d:monitor", testID)
}

var CacheKey = &CacheKeyStruct{}
