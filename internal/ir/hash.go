package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainModel    = "nwocg/model/v1"
	DomainArtifact = "nwocg/artifact/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ModelHash computes the content hash of a record set.
// Two record sets hash equal exactly when their canonical JSON is equal.
func ModelHash(m ModelRecords) (string, error) {
	canonical, err := MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("ModelHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainModel, canonical), nil
}

// ArtifactHash computes the content hash of a generated artifact.
func ArtifactHash(data []byte) string {
	return hashWithDomain(DomainArtifact, data)
}
