package sinks

// Rendered lines as produced by logq.Logger.
const (
	warnLine  = "09:30:15.123 WARN   conn.go:42 [4242] net-Conn: connection dropped"
	errorLine = "09:30:15.124 ERROR  db.go:7 [4242] db: disk full"
	dumpLine  = "09:30:15.125 DEBUG  codec.go:9 [4242] codec: frame\n0x0000: 0102                                     '..'"
)
