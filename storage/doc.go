// Package storage persists the local key mirror.
//
// The mirror is a single JSON array of key records. Readers and writers take
// an exclusive flock on a sibling "<path>.lock" file, and every write goes to
// a temporary file in the same directory which is then renamed over the
// mirror, so a crash never leaves a truncated file behind.
package storage
