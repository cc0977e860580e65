package managed_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sectrean/filter-kit"
	"github.com/sectrean/filter-kit/internal/testtypes"
	"github.com/sectrean/filter-kit/internal/testutils"
	"github.com/sectrean/filter-kit/managed"
)

type lifecycleFilter struct {
	*testtypes.Lifecycle
}

func (f lifecycleFilter) DoFilter(w http.ResponseWriter, r *http.Request, chain managed.Chain) error {
	f.Journal.Add("filter " + f.Name)
	return chain.DoFilter(w, r)
}

type lifecycleServlet struct {
	*testtypes.Lifecycle
}

func (s lifecycleServlet) Serve(w http.ResponseWriter, _ *http.Request) error {
	s.Journal.Add("servlet " + s.Name)
	w.WriteHeader(http.StatusOK)
	return nil
}

// markFilter wraps the request with its label for everything downstream.
func markFilter(label string) managed.Filter {
	return managed.FilterFunc(func(w http.ResponseWriter, r *http.Request, chain managed.Chain) error {
		wrapped := testtypes.Mark(r, label)
		return filter.Within(wrapped, w, func(r *http.Request) error {
			return chain.DoFilter(w, r)
		})
	})
}

func newGate(t *testing.T, p filter.Pipeline) *filter.Gate {
	t.Helper()

	g, err := filter.NewGate(
		filter.WithPipeline(p),
		filter.WithPipelineRegistry(filter.NewPipelineRegistry(nil)),
	)
	require.NoError(t, err)

	return g
}

func Test_New(t *testing.T) {
	t.Run("no options", func(t *testing.T) {
		p, err := managed.New()
		require.NoError(t, err)

		w, r := testutils.NewRequest(t, "/")
		require.NoError(t, p.Dispatch(w, r, nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid options", func(t *testing.T) {
		p, err := managed.New(
			managed.WithFilter("/a", nil),
			managed.WithFilter("bad", markFilter("x")),
			managed.WithServlet("x", managed.HandlerServlet(http.NotFoundHandler())),
			managed.WithServlet("/a", nil),
			managed.WithLogger(nil),
		)
		testutils.LogError(t, err)

		assert.Nil(t, p)
		assert.EqualError(t, err, "managed.New: "+
			"WithFilter \"/a\": f is nil\n"+
			"WithFilter: pattern \"bad\" must begin with '/' or '*.'\n"+
			"WithServlet \"x\": pattern must begin with '/'\n"+
			"WithServlet \"/a\": s is nil\n"+
			"WithLogger: l is nil")
	})

	t.Run("malformed servlet pattern", func(t *testing.T) {
		p, err := managed.New(
			managed.WithServlet("/items/{id", managed.HandlerServlet(http.NotFoundHandler())),
		)
		testutils.LogError(t, err)

		assert.Nil(t, p)
		assert.ErrorContains(t, err, `managed.New: WithServlet "/items/{id"`)
	})

	t.Run("module", func(t *testing.T) {
		var journal testtypes.Journal
		mod := managed.Module{
			managed.WithFilter("/*", lifecycleFilter{&testtypes.Lifecycle{Journal: &journal, Name: "f"}}),
			managed.WithServlet("/s", lifecycleServlet{&testtypes.Lifecycle{Journal: &journal, Name: "s"}}),
		}

		p, err := managed.New(managed.WithModule(mod))
		require.NoError(t, err)

		w, r := testutils.NewRequest(t, "/s")
		require.NoError(t, p.Dispatch(w, r, nil))

		assert.Equal(t, []string{"init f", "init s", "filter f", "servlet s"}, journal.Entries())
	})

	t.Run("module errors", func(t *testing.T) {
		mod := managed.Module{
			managed.WithFilter("/a", nil),
			managed.WithLogger(nil),
		}

		p, err := managed.New(managed.WithModule(mod))
		testutils.LogError(t, err)

		assert.Nil(t, p)
		assert.EqualError(t, err, "managed.New: "+
			"WithFilter \"/a\": f is nil\n"+
			"WithLogger: l is nil")
	})
}

func Test_Pipeline_Dispatch(t *testing.T) {
	t.Run("filters run in order for matching paths", func(t *testing.T) {
		var order []string
		record := func(name string) managed.Filter {
			return managed.FilterFunc(func(w http.ResponseWriter, r *http.Request, chain managed.Chain) error {
				order = append(order, name)
				return chain.DoFilter(w, r)
			})
		}

		p, err := managed.New(
			managed.WithFilter("/*", record("all")),
			managed.WithFilter("/api/*", record("api")),
			managed.WithFilter("*.json", record("json")),
			managed.WithFilter("/api/items.json", record("exact")),
			managed.WithFilter("/static/*", record("static")),
		)
		require.NoError(t, err)

		w, r := testutils.NewRequest(t, "/api/items.json")
		require.NoError(t, p.Dispatch(w, r, http.NotFoundHandler()))

		assert.Equal(t, []string{"all", "api", "json", "exact"}, order)
	})

	t.Run("filter stops the chain", func(t *testing.T) {
		servletCalled := false

		p, err := managed.New(
			managed.WithFilter("/*", managed.FilterFunc(func(w http.ResponseWriter, _ *http.Request, _ managed.Chain) error {
				w.WriteHeader(http.StatusForbidden)
				return nil
			})),
			managed.WithServlet("/s", managed.ServletFunc(func(http.ResponseWriter, *http.Request) error {
				servletCalled = true
				return nil
			})),
		)
		require.NoError(t, err)

		w, r := testutils.NewRequest(t, "/s")
		require.NoError(t, p.Dispatch(w, r, nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.False(t, servletCalled)
	})

	t.Run("servlet route params", func(t *testing.T) {
		var id string

		p, err := managed.New(
			managed.WithServlet("/items/{id}", managed.ServletFunc(func(w http.ResponseWriter, r *http.Request) error {
				id = chi.URLParam(r, "id")
				w.WriteHeader(http.StatusNoContent)
				return nil
			})),
		)
		require.NoError(t, err)

		w, r := testutils.NewRequest(t, "/items/42")
		require.NoError(t, p.Dispatch(w, r, nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "42", id)
	})

	t.Run("servlet error", func(t *testing.T) {
		boom := errors.New("boom")

		p, err := managed.New(
			managed.WithServlet("/fail", managed.ServletFunc(func(http.ResponseWriter, *http.Request) error {
				return boom
			})),
		)
		require.NoError(t, err)

		w, r := testutils.NewRequest(t, "/fail")
		err = p.Dispatch(w, r, nil)

		assert.Same(t, boom, err)
	})

	t.Run("unmatched falls through to next", func(t *testing.T) {
		p, err := managed.New(
			managed.WithServlet("/s", managed.HandlerServlet(http.NotFoundHandler())),
		)
		require.NoError(t, err)

		next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})

		w, r := testutils.NewRequest(t, "/other")
		require.NoError(t, p.Dispatch(w, r, next))

		assert.Equal(t, http.StatusTeapot, w.Code)
	})

	t.Run("unmatched without next", func(t *testing.T) {
		p, err := managed.New(
			managed.WithServlet("/s", managed.HandlerServlet(http.NotFoundHandler())),
		)
		require.NoError(t, err)

		w, r := testutils.NewRequest(t, "/other")
		require.NoError(t, p.Dispatch(w, r, nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("wrapped requests through a gate", func(t *testing.T) {
		var (
			inServlet  string
			afterB     string
			afterA     string
			servletArg string
		)

		outer := managed.FilterFunc(func(w http.ResponseWriter, r *http.Request, chain managed.Chain) error {
			err := filter.Within(testtypes.Mark(r, "A"), w, func(ra *http.Request) error {
				err := chain.DoFilter(w, ra)
				afterB = testtypes.MarkerOf(filter.MustRequest(ra.Context()))
				return err
			})
			afterA = testtypes.MarkerOf(filter.MustRequest(r.Context()))
			return err
		})

		p, err := managed.New(
			managed.WithFilter("/*", outer),
			managed.WithFilter("/api/*", markFilter("B")),
			managed.WithServlet("/*", managed.ServletFunc(func(w http.ResponseWriter, r *http.Request) error {
				inServlet = testtypes.MarkerOf(filter.MustRequest(r.Context()))
				servletArg = testtypes.MarkerOf(r)
				w.WriteHeader(http.StatusOK)
				return nil
			})),
		)
		require.NoError(t, err)

		g := newGate(t, p)

		w, r := testutils.NewRequest(t, "/api/items")
		require.NoError(t, g.Dispatch(w, r, nil))

		assert.Equal(t, "B", inServlet)
		assert.Equal(t, "B", servletArg)
		assert.Equal(t, "A", afterB)
		assert.Equal(t, "", afterA)

		w, r = testutils.NewRequest(t, "/other")
		require.NoError(t, g.Dispatch(w, r, nil))

		assert.Equal(t, "A", inServlet)
	})
}

func Test_Pipeline_Lifecycle(t *testing.T) {
	newPipeline := func(t *testing.T, lcs ...*testtypes.Lifecycle) *managed.Pipeline {
		t.Helper()

		p, err := managed.New(
			managed.WithFilter("/*", lifecycleFilter{lcs[0]}),
			managed.WithFilter("/*", lifecycleFilter{lcs[1]}),
			managed.WithServlet("/s", lifecycleServlet{lcs[2]}),
		)
		require.NoError(t, err)

		return p
	}

	lifecycles := func(journal *testtypes.Journal) []*testtypes.Lifecycle {
		return []*testtypes.Lifecycle{
			{Journal: journal, Name: "f1"},
			{Journal: journal, Name: "f2"},
			{Journal: journal, Name: "s1"},
		}
	}

	t.Run("init and destroy order", func(t *testing.T) {
		var journal testtypes.Journal
		lcs := lifecycles(&journal)
		p := newPipeline(t, lcs...)

		sc := filter.NewServerContext("test", nil)
		require.NoError(t, p.Init(sc))
		require.NoError(t, p.Init(sc))

		for _, lc := range lcs {
			assert.Same(t, sc, lc.Server)
		}

		require.NoError(t, p.Destroy())

		assert.Equal(t, []string{
			"init f1", "init f2", "init s1",
			"destroy s1", "destroy f2", "destroy f1",
		}, journal.Entries())
	})

	t.Run("lazy init on dispatch", func(t *testing.T) {
		var journal testtypes.Journal
		lcs := lifecycles(&journal)
		p := newPipeline(t, lcs...)

		for range 2 {
			w, r := testutils.NewRequest(t, "/s")
			require.NoError(t, p.Dispatch(w, r, nil))
		}

		assert.Equal(t, []string{
			"init f1", "init f2", "init s1",
			"filter f1", "filter f2", "servlet s1",
			"filter f1", "filter f2", "servlet s1",
		}, journal.Entries())
		assert.Nil(t, lcs[0].Server)
	})

	t.Run("concurrent lazy init", func(t *testing.T) {
		var journal testtypes.Journal
		p := newPipeline(t, lifecycles(&journal)...)

		testutils.RunParallel(50, func(int) {
			w, r := testutils.NewRequest(t, "/s")
			assert.NoError(t, p.Dispatch(w, r, nil))
		})

		entries := journal.Entries()
		assert.Equal(t, []string{"init f1", "init f2", "init s1"}, entries[:3])
		assert.NotContains(t, entries[3:], "init f1")
	})

	t.Run("init failure", func(t *testing.T) {
		boom := errors.New("boom")

		var journal testtypes.Journal
		lcs := lifecycles(&journal)
		lcs[1].InitErr = boom
		p := newPipeline(t, lcs...)

		err := p.Init(nil)
		testutils.LogError(t, err)
		assert.ErrorIs(t, err, boom)
		assert.ErrorContains(t, err, "managed.Pipeline.Init: init filter /* ")

		w, r := testutils.NewRequest(t, "/s")
		err = p.Dispatch(w, r, nil)
		assert.ErrorIs(t, err, boom)

		require.NoError(t, p.Destroy())

		assert.Equal(t, []string{"init f1", "init f2", "destroy f1"}, journal.Entries())
	})

	t.Run("destroy errors are joined", func(t *testing.T) {
		errF1 := errors.New("f1 failed")
		errS1 := errors.New("s1 failed")

		var journal testtypes.Journal
		lcs := lifecycles(&journal)
		lcs[0].DestroyErr = errF1
		lcs[2].DestroyErr = errS1
		p := newPipeline(t, lcs...)

		require.NoError(t, p.Init(nil))

		err := p.Destroy()
		testutils.LogError(t, err)
		assert.ErrorIs(t, err, errF1)
		assert.ErrorIs(t, err, errS1)
		assert.ErrorContains(t, err, "managed.Pipeline.Destroy: ")

		assert.Equal(t, []string{
			"init f1", "init f2", "init s1",
			"destroy s1", "destroy f2", "destroy f1",
		}, journal.Entries())
	})

	t.Run("destroy without init", func(t *testing.T) {
		var journal testtypes.Journal
		p := newPipeline(t, lifecycles(&journal)...)

		require.NoError(t, p.Destroy())
		assert.Empty(t, journal.Entries())
	})

	t.Run("use after destroy", func(t *testing.T) {
		var journal testtypes.Journal
		p := newPipeline(t, lifecycles(&journal)...)

		require.NoError(t, p.Init(nil))
		require.NoError(t, p.Destroy())

		assert.ErrorIs(t, p.Init(nil), managed.ErrPipelineDestroyed)

		w, r := testutils.NewRequest(t, "/s")
		assert.ErrorIs(t, p.Dispatch(w, r, nil), managed.ErrPipelineDestroyed)

		require.NoError(t, p.Destroy())
	})

	t.Run("gate lifecycle", func(t *testing.T) {
		var journal testtypes.Journal
		lcs := lifecycles(&journal)
		p := newPipeline(t, lcs...)
		g := newGate(t, p)

		host := filter.NewHost()
		sc := filter.NewServerContext("gate", map[string]any{"env": "test"})
		handle := host.Register(sc)

		require.NoError(t, g.Init(host, handle))
		assert.Same(t, sc, lcs[2].Server)

		require.NoError(t, g.Destroy())
		assert.Equal(t, []string{
			"init f1", "init f2", "init s1",
			"destroy s1", "destroy f2", "destroy f1",
		}, journal.Entries())
	})
}

func Test_Pipeline_Logging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	p, err := managed.New(
		managed.WithLogger(zap.New(core)),
		managed.WithFilter("/*", markFilter("x")),
		managed.WithServlet("/s", managed.HandlerServlet(http.NotFoundHandler())),
	)
	require.NoError(t, err)

	require.NoError(t, p.Init(nil))
	require.NoError(t, p.Destroy())

	assert.Equal(t, 2, logs.FilterMessage("pipeline component initialized").Len())
	assert.Equal(t, 0, logs.FilterMessage("pipeline component destroyed").Len())
}
