package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Domain-specific hash types
type (
	FrameHash       Hash
	TrainingSetHash Hash
)

func (h FrameHash) String() string       { return Hash(h).String() }
func (h TrainingSetHash) String() string { return Hash(h).String() }

func (h FrameHash) IsEmpty() bool       { return Hash(h).IsEmpty() }
func (h TrainingSetHash) IsEmpty() bool { return Hash(h).IsEmpty() }

// ComputeFrameHash fingerprints a rendered table. Rows are joined cell by cell
// with unit/record separators so that ("ab","c") and ("a","bc") differ.
func ComputeFrameHash(headers []string, rows [][]string) FrameHash {
	var data strings.Builder
	data.WriteString(strings.Join(headers, "\x1f"))
	for _, row := range rows {
		data.WriteByte('\x1e')
		data.WriteString(strings.Join(row, "\x1f"))
	}
	return FrameHash(NewHash([]byte(data.String())))
}

// ComputeTrainingSetHash fingerprints the exact matrix a model was fit on.
func ComputeTrainingSetHash(featureNames []string, rows [][]string, labels []string) TrainingSetHash {
	var data strings.Builder
	data.WriteString(strings.Join(featureNames, "\x1f"))
	for i, row := range rows {
		data.WriteByte('\x1e')
		data.WriteString(strings.Join(row, "\x1f"))
		if i < len(labels) {
			data.WriteByte('=')
			data.WriteString(labels[i])
		}
	}
	return TrainingSetHash(NewHash([]byte(data.String())))
}
