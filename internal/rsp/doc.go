// Package rsp implements the packet layer of the GDB remote serial protocol
// as spoken by st-util and similar debug stubs.
//
// A packet travels on the wire as
//
//	$<escaped payload>#<two hex digits>
//
// where the payload bytes '$', '#' and '}' are sent as '}' followed by the
// byte XOR 0x20, and the trailing digits are the modulo-256 sum of the
// unescaped payload bytes. Every packet is acknowledged by the receiver with
// a single '+'. Anything else in place of the acknowledgement is fatal; this
// package never retransmits.
//
// # Usage
//
//	conn, err := rsp.Dial(ctx, "localhost:4242", logger)
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
//	reply, err := conn.Exchange([]byte("!"))
//
// A Conn carries exactly one request at a time and must not be shared between
// goroutines. To interrupt a blocked exchange, cancel the context passed to
// CloseOnDone; the socket is closed and the pending read fails.
package rsp
