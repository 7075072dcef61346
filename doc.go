// Package ld2410 implements an asynchronous-flavoured client for the
// Hi-Link LD2410 family of 24 GHz presence-radar sensors.
//
// The device speaks a binary protocol over a UART link: a Client opens the
// serial port, issues request/reply commands while in configuration mode,
// and otherwise receives periodic presence reports in the background. Use
// Open to connect, then either Configure for a batch of configuration-mode
// operations or the individual Get/Set methods, which enter and leave
// configuration mode on their own.
//
// Device discovery, automatic reconnection, and concurrent multi-session
// access to the same device are out of scope; callers own the serial path
// and the Client's lifetime.
package ld2410
