package container_test

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/km-arc/falcon/framework/container"
)

// ── stub services ─────────────────────────────────────────────────────────────

var engineSerial atomic.Int64

type Engine struct {
	Serial int64
}

func NewEngine() *Engine { return &Engine{Serial: engineSerial.Add(1)} }

type Car struct {
	Engine *Engine
	Name   string
	Wheels int
}

func NewCar(e *Engine, name string, wheels int) *Car {
	return &Car{Engine: e, Name: name, Wheels: wheels}
}

type Driver interface {
	Drive() string
}

type Chauffeur struct {
	Car *Car
}

func NewChauffeur(car *Car) *Chauffeur { return &Chauffeur{Car: car} }

func (c *Chauffeur) Drive() string { return fmt.Sprintf("driving on %d wheels", c.Car.Wheels) }

type Trip struct {
	Driver Driver
}

func NewTrip(d Driver) *Trip { return &Trip{Driver: d} }

// Garage takes its Engine by value.
type Garage struct {
	Engine Engine
}

func NewGarage(e Engine) *Garage { return &Garage{Engine: e} }

// Toolbox is built without a constructor.
type Toolbox struct {
	Tools []string
}

var errNoFuel = errors.New("no fuel")

type Tank struct{}

func NewTank() (*Tank, error) { return nil, errNoFuel }

// Dashboard needs the container itself.
type Dashboard struct {
	App *container.Container
}

func NewDashboard(app *container.Container) *Dashboard { return &Dashboard{App: app} }

// Radio needs a Tank, which never builds.
type Radio struct {
	Tank *Tank
}

func NewRadio(t *Tank) *Radio { return &Radio{Tank: t} }

// ── helpers ───────────────────────────────────────────────────────────────────

func newTypes() *container.TypeRegistry {
	types := container.NewTypeRegistry()
	types.Constructor(NewEngine)
	types.Constructor(NewCar, container.WithDefault(2, 4))
	types.Constructor(NewChauffeur)
	types.Constructor(NewTrip)
	types.Constructor(NewGarage)
	types.Constructor(NewTank)
	types.Constructor(NewDashboard)
	types.Constructor(NewRadio)
	container.RegisterStruct[Toolbox](types)
	container.RegisterInterface[Driver](types)
	return types
}

func newContainer(t *testing.T, opts ...container.Option) (*container.Container, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	opts = append([]container.Option{
		container.WithTypes(newTypes()),
		container.WithLogger(zap.New(core)),
	}, opts...)
	return container.New(opts...), logs
}

func warnings(logs *observer.ObservedLogs) []observer.LoggedEntry {
	return logs.FilterLevelExact(zapcore.WarnLevel).All()
}
