// Package server streams decoded readings to WebSocket subscribers.
//
// The server exposes a single /readings endpoint; each connected client
// receives every subsequent reading as a JSON object. Clients that stop
// draining their socket are dropped rather than allowed to stall the
// stream. While running, the service advertises itself on the local
// network over mDNS as an _oxistream._tcp service so consumers can find
// the stream without configuration.
package server
