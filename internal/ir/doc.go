// Package ir provides the canonical encoding and content-addressed identity
// used for every query description the translator produces.
//
// This package imports nothing internal. Every other internal package may
// import ir; ir imports nothing back.
//
// Key design constraints:
//   - Canonical JSON follows RFC 8785: UTF-16 key order, NFC strings, no HTML escaping
//   - Floats use the ECMAScript shortest round-trip form; NaN and Inf are rejected
//   - Timestamps encode as RFC 3339 strings with their zone offset preserved
//   - Identity hashes use SHA-256 with domain separation
package ir
