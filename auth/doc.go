// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides admin keys, share slugs and record ids.

# Admin Keys

Admin keys use HMAC-SHA256 over the poll id:

	adminKey := auth.GenerateAdminKey(pollID, salt)
	err := auth.RequireAdmin(r, pollID, salt) // reads X-Admin-Key

The key is URL-safe base64 without padding and is never stored. A missing
header yields ErrMissingAdminKey, a wrong key ErrInvalidAdminKey.

# Share Slugs

Share slugs create URL-friendly identifiers for published polls:

	slug := auth.GenerateShareSlug(pollID, salt)
	url := auth.ShareURL(cfg.BaseURL, slug)

Slugs are base62 encoded (alphanumeric only) and deterministic from the poll
ID and salt.

# IDs

	pollID, err := auth.GenerateID(16) // 32 hex characters
	rowID := auth.NewRecordID()        // uuid for responses and snapshots

# IP Hashing

	hash := auth.HashIP(ipAddress, salt)

Returns the first 8 bytes (16 hex chars) of HMAC-SHA256, or "" when the
address is unknown.
*/
package auth
