package container_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/falcon/framework/container"
	"github.com/km-arc/falcon/framework/singleton"
)

var (
	engineID    = container.NameOf[Engine]()
	carID       = container.NameOf[Car]()
	driverID    = container.NameOf[Driver]()
	chauffeurID = container.NameOf[Chauffeur]()
)

// ── Lifetimes ─────────────────────────────────────────────────────────────────

func TestSingleton_SameInstance(t *testing.T) {
	c, _ := newContainer(t)
	c.Singleton("engine", engineID)

	first := c.Get("engine")
	second := c.Get("engine")

	require.NotNil(t, first)
	assert.Same(t, first, second)
	assert.True(t, c.Resolved("engine"))
}

func TestBind_FreshInstanceEachGet(t *testing.T) {
	c, _ := newContainer(t)
	c.Bind("engine", engineID)

	first := c.Get("engine").(*Engine)
	second := c.Get("engine").(*Engine)

	assert.NotSame(t, first, second)
	assert.NotEqual(t, first.Serial, second.Serial)
	assert.False(t, c.Resolved("engine"))
}

func TestBind_FirstRegistrationWins(t *testing.T) {
	c, _ := newContainer(t)
	c.Bind("svc", func(*container.Container) any { return "A" })
	c.Bind("svc", func(*container.Container) any { return "B" })
	c.Singleton("svc", func(*container.Container) any { return "C" })

	assert.Equal(t, "A", c.Get("svc"))
	info, ok := c.Binding("svc")
	require.True(t, ok)
	assert.False(t, info.Shared, "a later Singleton must not make the binding shared")
}

func TestBind_NilConcreteBindsToItself(t *testing.T) {
	c, _ := newContainer(t)
	c.Singleton(engineID, nil)

	info, ok := c.Binding(engineID)
	require.True(t, ok)
	assert.Equal(t, engineID, info.Concrete)
	assert.IsType(t, &Engine{}, c.Get(engineID))
}

func TestBind_UnsupportedConcretePanics(t *testing.T) {
	c, _ := newContainer(t)
	assert.PanicsWithValue(t, "container: unsupported concrete int for [x]", func() {
		c.Bind("x", 42)
	})
	assert.Panics(t, func() { c.Bind("y", container.Factory(nil)) })
}

func TestHas(t *testing.T) {
	c, _ := newContainer(t)
	assert.False(t, c.Has("engine"))
	c.Bind("engine", engineID)
	assert.True(t, c.Has("engine"))
}

func TestInstance_FirstRegistrationWins(t *testing.T) {
	c, _ := newContainer(t)
	c.Instance("config", "first")
	c.Instance("config", "second")
	c.Bind("bound", func(*container.Container) any { return "bound" })
	c.Instance("bound", "instance")

	assert.Equal(t, "first", c.Get("config"))
	assert.Equal(t, "bound", c.Get("bound"))
}

func TestSingleton_ConcurrentGetKeepsOneInstance(t *testing.T) {
	c, _ := newContainer(t)
	c.Singleton("engine", engineID)

	var wg sync.WaitGroup
	got := make([]any, 16)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = c.Get("engine")
		}()
	}
	wg.Wait()

	for _, v := range got[1:] {
		assert.Same(t, got[0], v)
	}
}

// ── Absent and failed resolution ──────────────────────────────────────────────

func TestGet_UnknownIDReturnsNilSilently(t *testing.T) {
	c, logs := newContainer(t)

	assert.Nil(t, c.Get("NoSuchType"))
	assert.Empty(t, warnings(logs))

	_, err := c.Make("NoSuchType")
	assert.ErrorIs(t, err, container.ErrAbsent)
}

func TestGet_InterfaceIsNotInstantiable(t *testing.T) {
	c, logs := newContainer(t)

	assert.Nil(t, c.Get(driverID))
	require.Len(t, warnings(logs), 1)
	assert.Equal(t, driverID, warnings(logs)[0].ContextMap()["id"])

	_, err := c.Make(driverID)
	assert.ErrorIs(t, err, container.ErrNotInstantiable)
	var notInst *container.NotInstantiableError
	require.True(t, errors.As(err, &notInst))
	assert.Equal(t, driverID, notInst.Type)
}

func TestGet_BoundToUnknownTypeIsLogged(t *testing.T) {
	c, logs := newContainer(t)
	c.Bind("svc", "example.com/missing.Type")

	assert.Nil(t, c.Get("svc"))
	assert.Len(t, warnings(logs), 1)
}

func TestGet_ConstructorErrorIsSwallowed(t *testing.T) {
	c, logs := newContainer(t)
	c.Singleton("tank", container.NameOf[Tank]())

	assert.Nil(t, c.Get("tank"))
	assert.False(t, c.Resolved("tank"), "failures are never cached")
	assert.Len(t, warnings(logs), 1)

	_, err := c.Make("tank")
	assert.ErrorIs(t, err, errNoFuel)
	var resErr *container.ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "tank", resErr.ID)
}

func TestGet_FailedDependencyBecomesZero(t *testing.T) {
	c, _ := newContainer(t)

	radio, ok := c.Get(container.NameOf[Radio]()).(*Radio)
	require.True(t, ok)
	assert.Nil(t, radio.Tank)
}

func TestSingleton_NilFactoryResultNotCached(t *testing.T) {
	c, _ := newContainer(t)
	calls := 0
	c.Singleton("maybe", func(*container.Container) any {
		calls++
		return nil
	})

	assert.Nil(t, c.Get("maybe"))
	assert.Nil(t, c.Get("maybe"))
	assert.Equal(t, 2, calls)
}

// ── Constructor injection ─────────────────────────────────────────────────────

func TestGet_ResolvesNestedDependencies(t *testing.T) {
	c, _ := newContainer(t)
	c.Bind(carID, nil)
	c.Bind(chauffeurID, nil)

	ch, ok := c.Get(chauffeurID).(*Chauffeur)
	require.True(t, ok)
	require.NotNil(t, ch.Car)
	require.NotNil(t, ch.Car.Engine)
	assert.Equal(t, 4, ch.Car.Wheels, "declared default")
	assert.Empty(t, ch.Car.Name, "builtin without default is zero")
}

func TestGet_UnboundRegisteredTypeIsBuilt(t *testing.T) {
	c, _ := newContainer(t)

	assert.IsType(t, &Chauffeur{}, c.Get(chauffeurID))
	assert.False(t, c.Has(chauffeurID))
}

func TestGet_InterfaceBoundToConcrete(t *testing.T) {
	c, _ := newContainer(t)
	c.Bind(driverID, chauffeurID)

	trip, ok := c.Get(container.NameOf[Trip]()).(*Trip)
	require.True(t, ok)
	require.NotNil(t, trip.Driver)
	assert.Equal(t, "driving on 4 wheels", trip.Driver.Drive())
}

func TestGet_SharedDependencyIsReused(t *testing.T) {
	c, _ := newContainer(t)
	c.Singleton(engineID, nil)

	a := c.Get(carID).(*Car)
	b := c.Get(carID).(*Car)

	assert.NotSame(t, a, b)
	assert.Same(t, a.Engine, b.Engine)
}

func TestGet_PointerFeedsValueParameter(t *testing.T) {
	c, _ := newContainer(t)
	c.Singleton(engineID, nil)
	engine := c.Get(engineID).(*Engine)

	garage := c.Get(container.NameOf[Garage]()).(*Garage)
	assert.Equal(t, engine.Serial, garage.Engine.Serial)
}

func TestGet_StructWithoutConstructor(t *testing.T) {
	c, _ := newContainer(t)

	box, ok := c.Get(container.NameOf[Toolbox]()).(*Toolbox)
	require.True(t, ok)
	assert.Empty(t, box.Tools)
}

func TestGet_FactoryReceivesContainer(t *testing.T) {
	c, _ := newContainer(t)
	c.Bind("self", func(app *container.Container) any { return app })

	assert.Same(t, c, c.Get("self"))
}

func TestGet_ContainerResolvesItself(t *testing.T) {
	c, _ := newContainer(t)

	assert.Same(t, c, c.Get("container"))
	assert.Same(t, c, c.Get(container.NameOf[container.Container]()))

	dash := c.Get(container.NameOf[Dashboard]()).(*Dashboard)
	assert.Same(t, c, dash.App)
}

func TestGet_IncompatibleBindingFailsDependent(t *testing.T) {
	c, _ := newContainer(t)
	c.Bind(engineID, func(*container.Container) any { return "not an engine" })

	_, err := c.Make(carID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot use string as *container_test.Engine")
}

// ── Typed helpers ─────────────────────────────────────────────────────────────

func TestResolve_Typed(t *testing.T) {
	c, _ := newContainer(t)
	c.Bind(driverID, chauffeurID)

	d, err := container.Resolve[Driver](c, driverID)
	require.NoError(t, err)
	assert.NotNil(t, d)

	_, err = container.Resolve[*Car](c, driverID)
	assert.Error(t, err)

	_, err = container.Resolve[*Car](c, "nothing")
	assert.ErrorIs(t, err, container.ErrAbsent)
}

func TestMustResolve_Panics(t *testing.T) {
	c, _ := newContainer(t)
	assert.Panics(t, func() { container.MustResolve[*Car](c, "nothing") })
	assert.NotPanics(t, func() { container.MustResolve[*Car](c, carID) })
}

// ── Introspection ─────────────────────────────────────────────────────────────

func TestBindings_SortedWithState(t *testing.T) {
	c, _ := newContainer(t)
	c.Singleton("b", engineID)
	c.Bind("a", func(*container.Container) any { return 1 })
	c.Get("b")

	assert.Equal(t, []container.BindingInfo{
		{ID: "a", Concrete: "factory", Shared: false, Resolved: false},
		{ID: "b", Concrete: engineID, Shared: true, Resolved: true},
	}, c.Bindings())

	_, ok := c.Binding("zzz")
	assert.False(t, ok)
}

// ── Metrics ───────────────────────────────────────────────────────────────────

func TestMetrics_CountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := container.NewMetrics(reg)
	c, _ := newContainer(t, container.WithMetrics(m))
	c.Singleton("engine", engineID)

	c.Get("engine")
	c.Get("engine")
	c.Get("missing")
	c.Get(driverID)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions().WithLabelValues("resolved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions().WithLabelValues("cached")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions().WithLabelValues("absent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions().WithLabelValues("failed")))
}

// ── Process-wide container ────────────────────────────────────────────────────

func TestDefault_IsProcessWide(t *testing.T) {
	assert.Same(t, container.Default(), container.Default())
}

func TestContainer_CannotBeUnmarshalled(t *testing.T) {
	c, _ := newContainer(t)
	err := json.Unmarshal([]byte(`{}`), c)
	assert.ErrorIs(t, err, singleton.ErrIllegalState)
}
