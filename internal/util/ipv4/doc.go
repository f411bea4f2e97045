// Package ipv4 validates dotted-decimal IPv4 addresses entered by operators
// or returned by the public IP lookup.
//
// The rules are deliberately stricter than net.ParseIP: hostnames, IPv6,
// signs, whitespace and zero-padded octets are all rejected, because the
// accepted value is written verbatim into a sub-application's
// configuration.
package ipv4
