// Package ir provides the scalar literal values, canonical encoding and
// content hashes shared by every cteq package.
//
// ir imports nothing internal. This keeps it the foundational layer with no
// circular dependencies.
//
// Key design constraints:
//   - NO float types anywhere - literals are strings, int64, bools or NULL
//   - Canonical JSON (RFC 8785 key order, NFC strings) is the only encoding
//     used for content-addressed identity
//   - Hashes are domain separated so a schema hash can never collide with a
//     statement ID
package ir
