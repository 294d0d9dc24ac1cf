// Package auth stores API credential profiles. Each profile holds an
// optional request key and access token. Manager tries the system keyring
// first, then an AES-GCM encrypted file keyed with PBKDF2, and finally reads
// SEBACKUP_REQUEST_KEY and SEBACKUP_ACCESS_TOKEN from the environment.
package auth
