// Package devtools is a live inspector for havelock graphs.
//
// It records graph events (writes, commits, aborts, recomputations,
// reaction fires, propagation passes) through the engine's observer hook
// and serves them over HTTP: a JSON snapshot at /graph, a WebSocket
// stream at /events and Prometheus metrics at /metrics.
//
// The engine stays free of I/O; devtools attaches from the outside:
//
//	rec := devtools.NewRecorder(0)
//	g := havelock.NewGraph(havelock.WithObserver(rec.Observer()))
//
//	srv := devtools.NewServer(devtools.ServerOptions{Recorder: rec})
//	go srv.Start(ctx)
//
// The inspector is a development aid and binds to loopback by default.
package devtools
