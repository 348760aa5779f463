package oioproxy

import (
	"fmt"
	"net/http"
	"time"
)

var startedAt = time.Now()

// ServeStatus writes the proxy's health snapshot as text/x-java-properties
// lines, the format the original conscience/proxy family reports its
// status in (spec §6: "/status answers key=value lines, one property per
// line, Content-Type text/x-java-properties"). Grounded in the teacher's
// admin listener exposing expvar.Handler() at "/routedns/vars"
// (adminlistener.go); this reports the proxy's own domain state instead
// of raw Go runtime counters.
func (p *Proxy) ServeStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/x-java-properties")
	w.WriteHeader(http.StatusOK)

	high, low := p.Resolver.Info()
	ns := p.Namespace.Info()

	fmt.Fprintf(w, "uptime=%d\n", int64(time.Since(startedAt).Seconds()))
	fmt.Fprintf(w, "ns=%s\n", ns.Name)
	fmt.Fprintf(w, "cache.high.count=%d\n", high.Count)
	fmt.Fprintf(w, "cache.high.max=%d\n", high.Max)
	fmt.Fprintf(w, "cache.low.count=%d\n", low.Count)
	fmt.Fprintf(w, "cache.low.max=%d\n", low.Max)
	fmt.Fprintf(w, "pushqueue.pending=%d\n", p.Push.Len())
	fmt.Fprintf(w, "task.admin.running=%t\n", p.AdminQueue.Running())
	fmt.Fprintf(w, "task.upstream.running=%t\n", p.UpstreamQueue.Running())
	fmt.Fprintf(w, "task.downstream.running=%t\n", p.DownstreamQueue.Running())
}
