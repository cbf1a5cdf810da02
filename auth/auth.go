// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// AdminKeyHeader carries the admin key on poll management requests.
const AdminKeyHeader = "X-Admin-Key"

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrMissingAdminKey = errors.New("missing admin key")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewRecordID returns a UUID for response and snapshot rows.
func NewRecordID() string {
	return uuid.NewString()
}

func sign(value, salt string) []byte {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(value))
	return h.Sum(nil)
}

// GenerateAdminKey derives the admin key for a poll. The key is never
// stored; it is recomputed from the poll id on every check.
func GenerateAdminKey(pollID, salt string) string {
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sign(pollID, salt)), "=")
}

// ValidateAdminKey checks if the provided admin key is valid for the poll
func ValidateAdminKey(pollID, adminKey, salt string) error {
	if adminKey == "" {
		return ErrMissingAdminKey
	}
	expected := GenerateAdminKey(pollID, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// RequireAdmin validates the admin key header of r against pollID.
func RequireAdmin(r *http.Request, pollID, salt string) error {
	return ValidateAdminKey(pollID, strings.TrimSpace(r.Header.Get(AdminKeyHeader)), salt)
}

// GenerateShareSlug creates a short, deterministic URL slug for a poll
func GenerateShareSlug(pollID, salt string) string {
	// First 8 bytes are plenty for an unguessable public slug
	return base62Encode(sign(pollID, salt)[:8])
}

// ShareURL joins the public base URL and a share slug.
func ShareURL(baseURL, slug string) string {
	return strings.TrimRight(baseURL, "/") + "/polls/" + slug
}

// base62Encode converts bytes to base62 (0-9, a-z, A-Z)
func base62Encode(data []byte) string {
	const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	var num uint64
	for i := 0; i < len(data) && i < 8; i++ {
		num = num<<8 | uint64(data[i])
	}

	if num == 0 {
		return "0"
	}

	result := make([]byte, 0, 11) // max length for uint64
	for num > 0 {
		result = append(result, base62Chars[num%62])
		num /= 62
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return string(result)
}

// HashIP returns a salted one-way hash of a respondent's address. Only the
// hash is stored with a response.
func HashIP(ip, salt string) string {
	if ip == "" {
		return ""
	}
	return hex.EncodeToString(sign(ip, salt)[:8])
}
