package dsk

// Resumer abstracts "where to resume", mirroring the source's any_resumer
// concept. Any type with Post and equality comparison may serve as a
// Resumer (§6 External Interfaces); the runtime only relies on the
// interface below. Equal is not consulted by RunOn, which always posts
// to its scheduler.
type Resumer interface {
	// Post schedules cont to run according to this resumer's policy.
	// Post may invoke cont before returning: the inline resumer always
	// does, as do SyncWait's resumer and a StatelessSchedulerResumer
	// that is already on its scheduler.
	Post(cont Continuation)

	// Equal reports whether other resumes through an observably
	// identical context as this one (§3: "two resumers compare equal
	// iff resumption through either is observably the same context").
	Equal(other Resumer) bool
}

// inlineResumer invokes the continuation on the current thread, in the
// current stack, synchronously. It is the distinguished resumer used
// when an AsyncContext carries no explicit resumer.
type inlineResumer struct{}

// InlineResumer is the process-wide inline resumer singleton. Since it
// is stateless, every inlineResumer value compares equal to every other
// by type identity alone, per §4.3 ("if a scheduler is stateless and
// singleton, its resumer is a zero-size type; comparing resumers
// reduces to type identity").
var InlineResumer Resumer = inlineResumer{}

func (inlineResumer) Post(cont Continuation) { cont() }

func (inlineResumer) Equal(other Resumer) bool {
	_, ok := other.(inlineResumer)
	return ok
}

// schedulerResumer is a Resumer wrapping a Poster (§4.3's scheduler
// concept reduced to the one method Resumer needs). It caches nothing
// by itself; StatelessSchedulerResumer below adds the "collapse to an
// inline continuation when already on S" optimization the source calls
// out as load-bearing for performance.
type schedulerResumer struct {
	s Poster
}

// Poster is the minimal scheduler surface a Resumer needs: enqueue a
// nullary callable. Scheduler (dsk/scheduler) satisfies it.
type Poster interface {
	Post(work func())
}

// NewSchedulerResumer wraps s as a Resumer. Two such resumers compare
// equal iff they wrap the same Poster value (by identity, via the
// wrapped interface's underlying pointer).
func NewSchedulerResumer(s Poster) Resumer { return schedulerResumer{s: s} }

func (r schedulerResumer) Post(cont Continuation) { r.s.Post(func() { cont() }) }

func (r schedulerResumer) Equal(other Resumer) bool {
	o, ok := other.(schedulerResumer)
	return ok && o.s == r.s
}

// StatelessSchedulerResumer returns a Resumer that collapses run_on(S, op)
// into a direct (inline) continuation invocation when the caller is
// already executing on top of scheduler S, and otherwise posts to S.
// This mirrors the source's "stateless-scheduler resumer" (§3): "cache
// the current scheduler so that repeated run_on(S, op) calls collapse
// to a direct continuation when already on S." Go has no goroutine-local
// storage to cache that state implicitly, so the caller supplies
// onScheduler, a callback answering "what scheduler, if any, is running
// right now". Nothing in this package constructs one: RunOn
// (syncwait.go) uses NewSchedulerResumer and posts to S even when the
// caller is already running on S.
func StatelessSchedulerResumer(s Poster, onScheduler func() (Poster, bool)) Resumer {
	return statelessSchedulerResumer{s: s, onScheduler: onScheduler}
}

type statelessSchedulerResumer struct {
	s           Poster
	onScheduler func() (Poster, bool)
}

func (r statelessSchedulerResumer) Post(cont Continuation) {
	if cur, ok := r.onScheduler(); ok && cur == r.s {
		cont()
		return
	}
	r.s.Post(func() { cont() })
}

func (r statelessSchedulerResumer) Equal(other Resumer) bool {
	switch o := other.(type) {
	case statelessSchedulerResumer:
		return o.s == r.s
	case schedulerResumer:
		return o.s == r.s
	default:
		return false
	}
}
