// Package shutdown provides graceful teardown for DrawDoc commands.
//
// Long-running commands (the edit shell) register cleanup hooks, such as
// flushing the auto-save record and closing the store, and run them once
// on SIGINT, SIGTERM or normal exit:
//
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown(store.Close)
//	ctx, stop := h.NotifyContext(context.Background())
//	defer stop()
//	defer h.Shutdown()
package shutdown
