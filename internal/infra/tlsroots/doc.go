// Package tlsroots provides TLS material for the RESP listener and its
// clients.
//
// Server side, a Reloader serves the key pair from disk and swaps it in
// when either file changes, so certificates can be rotated without a
// restart. Client side, LoadPool and ClientConfig build the trust roots
// from the system pool or a CA bundle.
package tlsroots
