// Package jwt issues and verifies the signed tokens embedded in password
// reset links, with strict validation semantics and single-use binding via
// the token's JTI claim.
package jwt
