// Package idgen provides short, URL-safe unique ID generation backed by nanoid.
// Generated ids are safe to embed in task text as a block anchor (^id).
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// TaskPrefix is prepended to ids minted for checklist lines.
var TaskPrefix = "t-"

// NodePrefix is prepended to ids minted for structural board nodes.
var NodePrefix = "n-"

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 8

// Task returns a new task id.
func Task() (string, error) {
	return GenerateWithPrefix(TaskPrefix)
}

// Node returns a new structural node id.
func Node() (string, error) {
	return GenerateWithPrefix(NodePrefix)
}

// GenerateWithPrefix returns a new unique ID with the given prefix.
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
