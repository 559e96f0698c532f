// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides authentication and key generation utilities.

# Admin Keys

Admin keys use HMAC-SHA256 to create deterministic, verifiable keys:

	adminKey := auth.GenerateAdminKey(seasonID, salt)
	err := auth.ValidateAdminKey(seasonID, adminKey, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same season ID and salt always produce the same key. This allows
validation without storing the key in the database. Week-scoped admin
actions resolve the week to its season and validate against that.

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters

# IP Hashing

For privacy-preserving fraud detection on vote rows:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
