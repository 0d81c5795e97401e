// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"bufio"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// Seal key derivation parameters.
const (
	sealKeyIterations = 100000
	sealKeySize       = 32
	sealKeySalt       = "rigrun-ide/audit-seal/v1"
)

// ErrSealMismatch is returned by Verify when a record's seal does not match.
var ErrSealMismatch = errors.New("audit seal mismatch")

// DeriveSealKey derives the HMAC key used to seal JSONL records from a
// configured secret using PBKDF2-SHA-256.
func DeriveSealKey(secret string) []byte {
	if secret == "" {
		return nil
	}
	return pbkdf2.Key([]byte(secret), []byte(sealKeySalt), sealKeyIterations, sealKeySize, sha256.New)
}

// record is one JSONL line.
type record struct {
	Entry
	PrevSeal string `json:"prev_seal,omitempty"`
	Seal     string `json:"seal,omitempty"`
}

// computeSeal returns hex(HMAC-SHA256(key, prev || "\n" || entryJSON)).
func computeSeal(key []byte, prev string, entryJSON []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(prev))
	mac.Write([]byte{'\n'})
	mac.Write(entryJSON)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyReport summarises a Verify run.
type VerifyReport struct {
	Records  int `json:"records"`
	Sealed   int `json:"sealed"`
	Unsealed int `json:"unsealed"`
	// FirstBadLine is the 1-based line of the first failure, 0 when none.
	FirstBadLine int `json:"first_bad_line,omitempty"`
}

// Verify checks every record in a JSONL audit stream. Each sealed record must
// carry a valid HMAC over its entry chained to the previous record's seal.
// The first record's prev_seal is taken as given, so rotated files verify on
// their own.
func Verify(r io.Reader, key []byte) (VerifyReport, error) {
	var report VerifyReport
	if len(key) == 0 {
		return report, errors.New("verify: no seal key configured")
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	prev := ""
	first := true
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			report.FirstBadLine = line
			return report, fmt.Errorf("line %d: %w", line, err)
		}
		report.Records++

		if rec.Seal == "" {
			report.Unsealed++
			report.FirstBadLine = line
			return report, fmt.Errorf("line %d: %w: record is not sealed", line, ErrSealMismatch)
		}
		if !first && rec.PrevSeal != prev {
			report.FirstBadLine = line
			return report, fmt.Errorf("line %d: %w: chain broken", line, ErrSealMismatch)
		}

		entryJSON, err := json.Marshal(rec.Entry)
		if err != nil {
			return report, fmt.Errorf("line %d: %w", line, err)
		}
		want := computeSeal(key, rec.PrevSeal, entryJSON)
		if !hmac.Equal([]byte(want), []byte(rec.Seal)) {
			report.FirstBadLine = line
			return report, fmt.Errorf("line %d: %w", line, ErrSealMismatch)
		}

		report.Sealed++
		prev = rec.Seal
		first = false
	}
	if err := scanner.Err(); err != nil {
		return report, fmt.Errorf("read audit log: %w", err)
	}
	return report, nil
}
