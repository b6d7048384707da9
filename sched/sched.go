package sched

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/simhost/errors"
)

// Prober tells whether a process exists.
type Prober interface {
	Alive(pid int) bool
}

// Signaler interrupts a process.
type Signaler interface {
	Interrupt(pid int) error
}

// Pinner restricts the current process to one logical CPU.
type Pinner interface {
	Pin(cpu int) error
}

// Config holds scheduler settings. Zero values select the defaults.
type Config struct {
	// Path is the shared table file. Default DefaultPath().
	Path string
	// Location formats progress timestamps. Default time.Local.
	Location *time.Location
	// CommandLine is recorded in the claimed slot. Default os.Args.
	CommandLine string
	// Slots is the table size. Default runtime.NumCPU().
	Slots int
	// PID identifies this process. Default os.Getpid().
	PID int
	// AutoClean frees defunct slots before claiming one.
	AutoClean bool
}

// Scheduler is this process's view of the shared table.
type Scheduler struct {
	region   Region
	prober   Prober
	signaler Signaler
	pinner   Pinner
	log      *zap.Logger
	cfg      Config
	mine     int
	inited   bool
	mu       sync.Mutex
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRegion uses r instead of opening the shared table.
func WithRegion(r Region) Option {
	return func(s *Scheduler) { s.region = r }
}

// WithProber sets the process-existence probe.
func WithProber(p Prober) Option {
	return func(s *Scheduler) { s.prober = p }
}

// WithSignaler sets how Kill interrupts processes.
func WithSignaler(sig Signaler) Option {
	return func(s *Scheduler) { s.signaler = sig }
}

// WithPinner sets how Init pins the process.
func WithPinner(p Pinner) Option {
	return func(s *Scheduler) { s.pinner = p }
}

// WithLogger sets the scheduler's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

func New(cfg Config, opts ...Option) *Scheduler {
	if cfg.Path == "" {
		cfg.Path = DefaultPath()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.CommandLine == "" {
		cfg.CommandLine = strings.Join(os.Args, " ")
	}
	if cfg.Slots <= 0 {
		cfg.Slots = runtime.NumCPU()
	}
	if cfg.PID <= 0 {
		cfg.PID = os.Getpid()
	}
	s := &Scheduler{cfg: cfg, mine: -1}
	for _, opt := range opts {
		opt(s)
	}
	if s.prober == nil {
		s.prober = osProcess{}
	}
	if s.signaler == nil {
		s.signaler = osProcess{}
	}
	if s.pinner == nil {
		s.pinner = osProcess{}
	}
	if s.log == nil {
		s.log = Logger()
	}
	return s
}

// Attach maps the shared table without claiming a slot.
func (s *Scheduler) Attach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attach()
}

func (s *Scheduler) attach() error {
	if s.region != nil {
		if len(s.region.Bytes()) < s.cfg.Slots*SlotSize {
			return errors.Unavailable(errors.PhaseSched, "process map is smaller than the slot count", nil)
		}
		return nil
	}
	r, err := OpenShared(s.cfg.Path, s.cfg.Slots)
	if err != nil {
		return err
	}
	s.region = r
	return nil
}

// Init claims the first free slot and pins the process to its CPU. It runs
// once; later calls do nothing. Missing shared memory or a full table are
// logged and leave the process unpinned.
func (s *Scheduler) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inited {
		s.log.Debug("scheduler already initialized")
		return nil
	}
	s.inited = true

	if err := s.attach(); err != nil {
		s.log.Warn("process map unavailable, running unscheduled", zap.Error(err))
		return nil
	}
	if s.cfg.AutoClean {
		s.clear()
	}

	for n := 0; n < s.cfg.Slots; n++ {
		claimed := false
		s.withSlot(n, func(sl *slot) {
			if sl.pid != 0 {
				return
			}
			sl.pid = int32(s.cfg.PID)
			sl.progress = 0
			sl.status = Init
			sl.setCmdline(s.cfg.CommandLine)
			claimed = true
		})
		if claimed {
			s.mine = n
			break
		}
	}
	if s.mine < 0 {
		err := errors.Unavailable(errors.PhaseSched, "no processor available to avoid overloading", nil)
		s.log.Warn("running unpinned", zap.Error(err), zap.Int("slots", s.cfg.Slots))
		return nil
	}
	s.log.Debug("processor claimed", zap.Int("cpu", s.mine), zap.Int("pid", s.cfg.PID))

	if err := s.pinner.Pin(s.mine); err != nil {
		s.log.Warn("unable to set processor affinity", zap.Int("cpu", s.mine), zap.Error(err))
	}
	return nil
}

// withSlot runs fn with slot n locked.
func (s *Scheduler) withSlot(n int, fn func(*slot)) {
	sl := slotAt(s.region.Bytes(), n)
	pid := uint32(s.cfg.PID)
	sl.acquire(pid, s.prober.Alive)
	defer sl.release(pid)
	fn(sl)
}

// Update records the simulation clock and status in the claimed slot.
func (s *Scheduler) Update(clock int64, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mine < 0 {
		return
	}
	s.withSlot(s.mine, func(sl *slot) {
		sl.progress = clock
		sl.status = status
	})
}

// Finish releases the claimed slot. Further calls do nothing. It is safe to
// call from a signal handler goroutine.
func (s *Scheduler) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mine < 0 {
		return
	}
	n := s.mine
	s.mine = -1
	s.withSlot(n, func(sl *slot) {
		if sl.pid == int32(s.cfg.PID) {
			sl.pid = 0
		}
	})
	s.log.Debug("processor released", zap.Int("cpu", n))
}

// Clear frees every slot whose owner no longer exists and returns how many
// were freed.
func (s *Scheduler) Clear() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.attach(); err != nil {
		return 0, err
	}
	return s.clear(), nil
}

func (s *Scheduler) clear() int {
	freed := 0
	for n := 0; n < s.cfg.Slots; n++ {
		s.withSlot(n, func(sl *slot) {
			if sl.pid != 0 && !s.prober.Alive(int(sl.pid)) {
				s.log.Debug("clearing defunct process", zap.Int("slot", n), zap.Int32("pid", sl.pid))
				sl.pid = 0
				freed++
			}
		})
	}
	return freed
}

// Kill interrupts the process owning slot n. A free slot is left alone.
func (s *Scheduler) Kill(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.attach(); err != nil {
		return err
	}
	if n < 0 || n >= s.cfg.Slots {
		return errors.InvalidInput(errors.PhaseSched, fmt.Sprintf("process %d is out of range 0-%d", n, s.cfg.Slots-1))
	}
	var pid int32
	s.withSlot(n, func(sl *slot) { pid = sl.pid })
	if pid == 0 {
		return nil
	}
	if err := s.signaler.Interrupt(int(pid)); err != nil {
		return errors.Wrap(errors.PhaseSched, errors.KindResourceUnavailable, err, fmt.Sprintf("unable to interrupt pid %d", pid))
	}
	return nil
}

// Row is one claimed slot as reported by List.
type Row struct {
	Command  string
	Index    int
	PID      int
	Progress int64
	Status   Status
	Defunct  bool
}

// State is the status label shown to operators.
func (r Row) State() string {
	if r.Defunct {
		return "Defunct"
	}
	return r.Status.String()
}

// Clock formats the progress timestamp in loc, or INIT before the first
// update.
func (r Row) Clock(loc *time.Location) string {
	if r.Progress == 0 {
		return "INIT"
	}
	return time.Unix(r.Progress, 0).In(loc).Format(clockLayout)
}

// List returns the claimed slots in index order.
func (s *Scheduler) List() ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.attach(); err != nil {
		return nil, err
	}
	var rows []Row
	for n := 0; n < s.cfg.Slots; n++ {
		s.withSlot(n, func(sl *slot) {
			if sl.pid == 0 {
				return
			}
			rows = append(rows, Row{
				Index:    n,
				PID:      int(sl.pid),
				Progress: sl.progress,
				Status:   sl.status,
				Command:  sl.command(),
			})
		})
	}
	for i := range rows {
		rows[i].Defunct = !s.prober.Alive(rows[i].PID)
	}
	return rows, nil
}

// ListHeader heads the table written by WriteList.
const ListHeader = "PROC   PID STATE                      CLOCK COMMAND"

const clockLayout = "2006-01-02 15:04:05 MST"

// WriteList writes the claimed slots as a table. Nothing is written when no
// slot is claimed.
func (s *Scheduler) WriteList(w io.Writer) error {
	rows, err := s.List()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, ListHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%4d %5d %-7.7s %24.24s %s\n", r.Index, r.PID, r.State(), r.Clock(s.cfg.Location), r.Command); err != nil {
			return err
		}
	}
	return nil
}

// Location is where progress timestamps are shown.
func (s *Scheduler) Location() *time.Location { return s.cfg.Location }

// CPU returns the claimed slot, or -1.
func (s *Scheduler) CPU() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mine
}

// PID returns the process id recorded in the claimed slot, or 0.
func (s *Scheduler) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mine < 0 {
		return 0
	}
	var pid int32
	s.withSlot(s.mine, func(sl *slot) { pid = sl.pid })
	return int(pid)
}

// Slots returns the table size.
func (s *Scheduler) Slots() int { return s.cfg.Slots }

// Close unmaps the table. It does not release the claimed slot.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.region == nil {
		return nil
	}
	err := s.region.Close()
	s.region = nil
	s.mine = -1
	return err
}
