// Package handlers holds the pieces of the HTTP layer that are not
// route handlers: health checking, service key authentication, and
// reusable middleware.
//
// Health checks are named probes run in parallel with a shared timeout:
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("database", handlers.NewDatabaseCheck(db))
//	checker.AddCheck("cache", handlers.NewCacheCheck(cache))
//	status := checker.Check(ctx)
//
// The profile sync webhook is protected by a shared service key, sent
// in the X-Service-Key header. Only a bcrypt hash of the key lives in
// configuration:
//
//	auth := handlers.NewServiceKeyAuth(cfg.ServiceKeyHash)
//	protected := auth.Middleware(syncHandler)
//
// Middleware composes with Chain or ChainHandler; the first listed
// middleware runs outermost:
//
//	handler := handlers.ChainHandler(
//	    myHandler,
//	    handlers.SecurityHeadersMiddleware,
//	    handlers.RequestSizeLimitMiddleware(1<<20),
//	)
package handlers
