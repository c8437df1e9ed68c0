// Package password hashes and verifies account passwords with Argon2id.
//
// Hashes use the PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Parameters travel with each hash, so [Argon2.Verify] keeps accepting hashes
// produced under older settings and [Argon2.NeedsUpgrade] reports when one
// should be re-hashed after the next successful login.
package password
