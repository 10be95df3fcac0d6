// Package ratelimit bounds the outbound request rate of a fill pass.
//
// # Fixed Window
//
// Window counts requests inside a fixed time window. When the window is full,
// the next Acquire sleeps until the window has lasted its full duration, then
// starts a new window. Windows are not sliding: up to twice the limit can be
// issued around a window boundary.
//
// # Usage
//
//	limiter := ratelimit.NewWindow(10, time.Second)
//	for _, req := range requests {
//	    if limiter.Full() {
//	        // flush work tied to the closing window
//	    }
//	    if err := limiter.Acquire(ctx); err != nil {
//	        return err
//	    }
//	    send(req)
//	}
package ratelimit
