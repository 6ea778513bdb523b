// Package rpc connects gRPC clients to the fault classifier.
//
// Every call made through a connection built by NewGRPCProvider, or through
// any connection with UnaryClientInterceptor and StreamClientInterceptor
// installed, fails with a *fault.Error instead of a bare status error:
//
//	p, err := rpc.NewGRPCProvider("spanner", "spanner.googleapis.com:443")
//	...
//	client := spannerpb.NewSpannerClient(p.Conn())
//	_, err = client.Commit(ctx, req)
//	if fe, ok := fault.As(err); ok && fe.Kind == fault.KindSessionNotFound {
//	    pool.Evict(fe.Resource)
//	}
//
// Decide turns a classified failure into retry advice. It does not retry;
// the caller owns the loop.
//
// Classified failures are counted in faultline_failures_total and logged at
// debug level.
package rpc
