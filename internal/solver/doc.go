// Package solver implements the fragment discovery and assembly engine.
//
// A solve session runs in three stages:
//
//  1. Discovery: four parallel range scans probe [0, 4B) to establish the
//     approximate index range in one round trip.
//  2. Gap resolution: bounded rounds fetch the missing indices plus one
//     probe past each unconfirmed boundary, widening the known range until
//     the remote confirms both edges or a budget runs out.
//  3. Assembly: fragments are sorted by index and joined into the final
//     text, complete or best-effort partial.
//
// All fetches go through a per-session concurrency limiter; results merge
// into a mutex-guarded store. The session obeys a wall-clock deadline: on
// expiry in-flight fetches are abandoned and whatever the store holds is
// assembled immediately.
//
// # Usage
//
//	res, err := solver.Solve(ctx, solver.Config{
//	    BaseURL:       "http://puzzle-server:8080/fragment",
//	    MaxConcurrent: 40,
//	    Deadline:      2 * time.Second,
//	})
//	// err only for configuration problems; res.Text, res.CompletionRate
package solver
