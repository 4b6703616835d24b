// Package identity resolves the signed-in device owner from an HS256 session token.
package identity
