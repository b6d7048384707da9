// Package sched is the cross-process scheduler: a table of CPU slots kept in
// shared memory, one per logical CPU, through which concurrently running
// simulation processes on one host claim a CPU, pin to it and report their
// progress.
//
// Each process calls Init once at startup, Update from its simulation loop
// and Finish on exit. A full table or an unavailable shared region is not an
// error: the process runs unpinned and unmonitored.
//
//	s := sched.New(sched.Config{AutoClean: true})
//	_ = s.Init(ctx)
//	defer s.Finish()
//	s.Update(clock, sched.Running)
//
// Liveness of slot owners is checked by probing the owning process, never by
// timeout, so slots held by processes that died without calling Finish are
// recovered by Clear.
//
// Only one slot per process is modeled; threads of one process share it.
package sched
