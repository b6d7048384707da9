package abi

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wippyai/simhost/class"
	"github.com/wippyai/simhost/errors"
)

// Clock is the global simulation clock in unix seconds.
type Clock interface {
	Now() int64
}

// ManualClock is a clock advanced explicitly by the simulation loop.
type ManualClock struct {
	t atomic.Int64
}

func (c *ManualClock) Now() int64  { return c.t.Load() }
func (c *ManualClock) Set(t int64) { c.t.Store(t) }
func (c *ManualClock) Add(d int64) { c.t.Add(d) }

// Classes is class registration. *class.List satisfies it.
type Classes interface {
	Register(owner class.Owner, name string, size int, pc class.PassConfig) (*class.Class, error)
	Find(name string) *class.Class
	First() *class.Class
}

// Object is an opaque simulation object.
type Object any

// Objects is the object lifecycle service.
type Objects interface {
	Create(c *class.Class) (Object, error)
	Find(name string) (Object, bool)
	Next(after Object) Object
	Link(parent, child Object) error
}

// Properties is property access by name.
type Properties interface {
	Get(obj Object, name string) (any, error)
	Set(obj Object, name string, value any) error
	Define(c *class.Class, name, kind string) error
}

// ModuleInfo is what modules learn about each other through the table.
type ModuleInfo interface {
	Name() string
	Version() (major, minor int)
}

// Modules is module lookup for module code.
type Modules interface {
	FindModule(name string) (ModuleInfo, bool)
	Depends(name string, major, minor int) bool
}

// Random is the random-number service.
type Random interface {
	Uniform(lo, hi float64) float64
	Normal(mean, stdev float64) float64
	Exponential(lambda float64) float64
}

// Units converts values between named units.
type Units interface {
	Convert(value float64, from, to string) (float64, error)
}

// Time converts timestamps.
type Time interface {
	Format(ts int64) string
	Parse(s string) (int64, error)
	IsDST(ts int64) bool
}

// Schedules, load shapes, enduses and forecasts are provided by the engine.
type Schedules interface {
	Schedule(name string) (float64, error)
}

type Shapes interface {
	LoadShape(name string) (float64, error)
	Enduse(name string) (float64, error)
	Forecast(name string, ts int64) (float64, error)
}

// PCG is the default Random backed by math/rand/v2.
type PCG struct {
	r  *rand.Rand
	mu sync.Mutex
}

// NewRandom seeds a generator; seed 0 uses the current time.
func NewRandom(seed uint64) *PCG {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &PCG{r: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

func (p *PCG) Uniform(lo, hi float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return lo + (hi-lo)*p.r.Float64()
}

func (p *PCG) Normal(mean, stdev float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return mean + stdev*p.r.NormFloat64()
}

func (p *PCG) Exponential(lambda float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.r.ExpFloat64() / lambda
}

// TimeLayout is the timestamp format shared with the process table.
const TimeLayout = "2006-01-02 15:04:05 MST"

// LocalTime converts timestamps in the host's local zone.
type LocalTime struct{}

func (LocalTime) Format(ts int64) string {
	return time.Unix(ts, 0).Format(TimeLayout)
}

func (LocalTime) Parse(s string) (int64, error) {
	t, err := time.ParseInLocation(TimeLayout, s, time.Local)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseRuntime, errors.KindInvalidInput, err, "bad timestamp")
	}
	return t.Unix(), nil
}

func (LocalTime) IsDST(ts int64) bool {
	return time.Unix(ts, 0).IsDST()
}

// Interpolation provides the interpolation helpers.
type Interpolation struct{}

// Linear interpolates y at t between (t0,y0) and (t1,y1).
func (Interpolation) Linear(t, t0, y0, t1, y1 float64) float64 {
	if t1 == t0 {
		return y0
	}
	return y0 + (t-t0)*(y1-y0)/(t1-t0)
}

// Quadratic interpolates y at t through three points.
func (Interpolation) Quadratic(t, t0, y0, t1, y1, t2, y2 float64) float64 {
	l0 := (t - t1) * (t - t2) / ((t0 - t1) * (t0 - t2))
	l1 := (t - t0) * (t - t2) / ((t1 - t0) * (t1 - t2))
	l2 := (t - t0) * (t - t1) / ((t2 - t0) * (t2 - t1))
	return y0*l0 + y1*l1 + y2*l2
}

func unsupported(what string) error {
	return errors.Unsupported(errors.PhaseRuntime, what+" service is not provided by this host")
}

type noObjects struct{}

func (noObjects) Create(*class.Class) (Object, error) { return nil, unsupported("object") }
func (noObjects) Find(string) (Object, bool)          { return nil, false }
func (noObjects) Next(Object) Object                  { return nil }
func (noObjects) Link(Object, Object) error           { return unsupported("object") }

type noProperties struct{}

func (noProperties) Get(Object, string) (any, error)           { return nil, unsupported("property") }
func (noProperties) Set(Object, string, any) error             { return unsupported("property") }
func (noProperties) Define(*class.Class, string, string) error { return unsupported("property") }

type noModules struct{}

func (noModules) FindModule(string) (ModuleInfo, bool) { return nil, false }
func (noModules) Depends(string, int, int) bool        { return false }

type noUnits struct{}

func (noUnits) Convert(v float64, from, to string) (float64, error) {
	if from == to {
		return v, nil
	}
	return 0, unsupported("unit")
}

type noSchedules struct{}

func (noSchedules) Schedule(string) (float64, error) { return 0, unsupported("schedule") }

type noShapes struct{}

func (noShapes) LoadShape(string) (float64, error)       { return 0, unsupported("loadshape") }
func (noShapes) Enduse(string) (float64, error)          { return 0, unsupported("enduse") }
func (noShapes) Forecast(string, int64) (float64, error) { return 0, unsupported("forecast") }
