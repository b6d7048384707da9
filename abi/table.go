package abi

import (
	"sync"

	"github.com/wippyai/simhost/class"
)

// Services supplies the host implementations behind a Table. Nil fields get
// defaults.
type Services struct {
	Clock      Clock
	Output     Output
	Classes    Classes
	Objects    Objects
	Properties Properties
	Modules    Modules
	Memory     *Allocator
	Random     Random
	Units      Units
	Time       Time
	Globals    Globals
	Schedules  Schedules
	Shapes     Shapes
}

// Table is the immutable callback table. Field order is part of the module
// contract: append new services at the end only.
type Table struct {
	clock      Clock
	output     Output
	classes    Classes
	objects    Objects
	properties Properties
	modules    Modules
	memory     *Allocator
	locks      *Locks
	random     Random
	units      Units
	time       Time
	globals    Globals
	exceptions *Exceptions
	schedules  Schedules
	shapes     Shapes
	handles    *Handles

	nativeOnce sync.Once
	native     *nativeTable
}

// New builds the callback table. Call it once per process.
func New(s Services) *Table {
	t := &Table{
		clock:      s.Clock,
		output:     s.Output,
		classes:    s.Classes,
		objects:    s.Objects,
		properties: s.Properties,
		modules:    s.Modules,
		memory:     s.Memory,
		locks:      &Locks{},
		random:     s.Random,
		units:      s.Units,
		time:       s.Time,
		globals:    s.Globals,
		exceptions: &Exceptions{},
		schedules:  s.Schedules,
		shapes:     s.Shapes,
		handles:    NewHandles(),
	}
	if t.clock == nil {
		t.clock = &ManualClock{}
	}
	if t.output == nil {
		t.output = NewLogOutput(Logger())
	}
	if t.classes == nil {
		t.classes = class.NewList()
	}
	if t.objects == nil {
		t.objects = noObjects{}
	}
	if t.properties == nil {
		t.properties = noProperties{}
	}
	if t.modules == nil {
		t.modules = noModules{}
	}
	if t.memory == nil {
		t.memory = NewAllocator(0)
	}
	if t.random == nil {
		t.random = NewRandom(0)
	}
	if t.units == nil {
		t.units = noUnits{}
	}
	if t.time == nil {
		t.time = LocalTime{}
	}
	if t.globals == nil {
		t.globals = NewGlobals()
	}
	if t.schedules == nil {
		t.schedules = noSchedules{}
	}
	if t.shapes == nil {
		t.shapes = noShapes{}
	}
	return t
}

// Clock returns the global simulation clock.
func (t *Table) Clock() Clock { return t.clock }

// Output returns the host logging channels.
func (t *Table) Output() Output { return t.output }

// Classes returns the class registration service.
func (t *Table) Classes() Classes { return t.classes }

// Objects returns the object lifecycle service.
func (t *Table) Objects() Objects { return t.objects }

// Properties returns property access by name and address.
func (t *Table) Properties() Properties { return t.properties }

// Modules returns the module lookup and dependency service.
func (t *Table) Modules() Modules { return t.modules }

// Memory returns the thread-safe allocator.
func (t *Table) Memory() *Allocator { return t.memory }

// Locks returns the locking primitives.
func (t *Table) Locks() *Locks { return t.locks }

// Random returns the random-number generators.
func (t *Table) Random() Random { return t.random }

// Units returns unit conversion.
func (t *Table) Units() Units { return t.units }

// Time returns timestamp and date conversion.
func (t *Table) Time() Time { return t.time }

// Globals returns global-variable access.
func (t *Table) Globals() Globals { return t.globals }

// Exceptions returns exception propagation hooks.
func (t *Table) Exceptions() *Exceptions { return t.exceptions }

// Schedules returns the schedule helpers.
func (t *Table) Schedules() Schedules { return t.schedules }

// Shapes returns the load-shape, enduse and forecast helpers.
func (t *Table) Shapes() Shapes { return t.shapes }

// Interpolate returns the interpolation helpers.
func (t *Table) Interpolate() Interpolation { return Interpolation{} }

// Handles maps opaque native handles to host values.
func (t *Table) Handles() *Handles { return t.handles }
