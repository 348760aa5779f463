package oioproxy

import (
	"context"
	"errors"
)

// resolveAndDo implements the retry loop from spec §4.2/§4.6: walk
// candidates in order, invoke do on each; success or an application-class
// error (Code() >= 100) triggers a resolver decache (if decache is
// non-nil) before returning, while a transport-class error (Code() < 100)
// tries the next candidate without touching the cache. Grounded in the
// teacher's
// FailBack/FailRotate resolver groups (failback.go, failrotate.go), which
// walked a fixed resolver list and switched to the next entry on error;
// here the "resolver list" is the set of backend addresses a Pool or
// Resolver handed back for one request; unlike FailBack there is no
// persistent "active index" across requests; each call starts at the
// first candidate, since candidate order already reflects the
// load-balancer's freshest preference.
func resolveAndDo(ctx context.Context, reference, svcType string, candidates []string, decache func(), do func(ctx context.Context, addr string) error) error {
	if len(candidates) == 0 {
		// Default for dir/srv-style "linked services" callers. Container-
		// scoped callers (withMeta2) must check this themselves and
		// return ErrContainerNotFound before ever calling in, since an
		// empty meta2 candidate list means the container is unknown, not
		// merely unlinked.
		return ErrNoServiceLinked(reference, svcType)
	}

	var lastErr error
	for _, addr := range candidates {
		err := do(ctx, addr)
		if err == nil {
			// Success: decache too, per spec §4.6 ("decache the
			// (reference, type) resolver entry on success or
			// application error, never on pure transport error").
			if decache != nil {
				decache()
			}
			return nil
		}

		var oe *Error
		if !errors.As(err, &oe) {
			lastErr = err
			continue
		}
		if oe.Transport() {
			lastErr = err
			continue
		}
		// Application-class error: terminal, but first let the caller
		// invalidate whatever cache entry led us to this dead end.
		if decache != nil {
			decache()
		}
		return err
	}
	return lastErr
}
