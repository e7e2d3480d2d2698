// Package progress provides console progress reporting for solve sessions.
//
// The reporter keeps atomic counters updated from concurrent fetch
// completions and periodically redraws a status line.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{
//	    SourceURL:     url,
//	    MaxConcurrent: 40,
//	})
//
//	reporter.Start()
//	defer reporter.Stop()
//
// # Output Format
//
//	[puzzle-decoder] Solving: http://puzzle-server:8080/fragment
//	[puzzle-decoder] Max concurrent fetches: 40
//	[puzzle-decoder] Fragments: 17 found | 12 in-flight | 40 probes | round 1
package progress
