// Package tor routes provider traffic through the Tor network.
//
// A Client wraps a SOCKS5 dialer from golang.org/x/net/proxy and hands out
// HTTP clients for the API providers and a raw dialer for WHOIS. The proxy
// is either an external Tor daemon or one started by EmbeddedTor through
// tornago. DNS queries are not proxied, so the MX provider is disabled when
// routing through Tor.
package tor
