// Package connection keeps an engine client connected.
//
// The engine never retries: a failed connect or a lost connection is
// reported once through OnDisconnected and left to the application. A
// Reconnector is that application layer. It wraps a ClientHandler, and
// after every OnDisconnected it schedules a new connect attempt on the
// reactor loop:
//
//  1. Initial delay: 500 ms
//  2. Exponential increase: 1 s, 2 s, 4 s, ...
//  3. Maximum delay: 30 s, repeated until a connect succeeds
//  4. Reset to the initial delay on OnConnected
//
// Each delay carries up to 25% random jitter so that clients dropped by
// the same server do not all come back at once:
//
//	actual_delay = base_delay + random(0, base_delay * 0.25)
package connection
