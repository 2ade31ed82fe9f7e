// Copyright (c) 2026 The OpenJudge Authors.
// All rights reserved. See LICENSE for details.

package contestaccess

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// sigLen is the number of lowercase hex characters kept from the hash.
const sigLen = 8

// CheckPassword verifies a submitted contest password against the contest
// secret at the given instant. Two forms are accepted:
//
//   - the plain secret itself, which never expires;
//   - a signed form "<sig>#<expiry>" where sig is the first 8 hex chars
//     of sha256(secret || expiry) and expiry is a unix-seconds timestamp
//     still in the future.
//
// The signed form lets a contest moderator hand out self-expiring access
// tokens without persisting per-recipient state. An empty submitted
// password or an empty secret is always invalid.
func CheckPassword(submitted, secret string, now time.Time) bool {
	if submitted == "" || secret == "" {
		return false
	}
	if submitted == secret {
		return true
	}
	if !strings.Contains(submitted, "#") {
		return false
	}

	parts := strings.Split(submitted, "#")
	if len(parts) != 2 {
		return false
	}
	sig, expiry := parts[0], parts[1]

	if sig != signature(secret, expiry) {
		return false
	}
	ts, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil {
		return false
	}
	return now.Unix() < ts
}

// Sign mints the shareable signed form of a contest password, valid until
// expiresAt.
func Sign(secret string, expiresAt time.Time) string {
	expiry := strconv.FormatInt(expiresAt.Unix(), 10)
	return fmt.Sprintf("%s#%s", signature(secret, expiry), expiry)
}

func signature(secret, expiry string) string {
	sum := sha256.Sum256([]byte(secret + expiry))
	return hex.EncodeToString(sum[:])[:sigLen]
}
