package managed

import (
	"github.com/sectrean/filter-kit"
)

// Initializer is implemented by filters and servlets that need setup before the first request.
//
// Any of these Init method signatures are supported:
//
//	Init(filter.ServerContext) error
//	Init(filter.ServerContext)
//	Init() error
type Initializer interface {
	Init(sc filter.ServerContext) error
}

// Destroyer is implemented by filters and servlets that need teardown when the pipeline
// is destroyed.
//
// Any of these method signatures are supported:
//
//	Destroy() error
//	Destroy()
//	Close() error
type Destroyer interface {
	Destroy() error
}

// getInitializer returns the Initializer for val, if it implements one of the
// supported signatures.
func getInitializer(val any) Initializer {
	switch i := val.(type) {
	case Initializer:
		return i
	case initializerNoError:
		return initializerNoErrorWrapper{i}
	case initializerNoContext:
		return initializerNoContextWrapper{i}

	default:
		return nil
	}
}

// getDestroyer returns the Destroyer for val, if it implements one of the
// supported signatures.
func getDestroyer(val any) Destroyer {
	switch d := val.(type) {
	case Destroyer:
		return d
	case destroyerNoError:
		return destroyerNoErrorWrapper{d}
	case closer:
		return closerWrapper{d}

	default:
		return nil
	}
}

type initializerNoError interface {
	Init(sc filter.ServerContext)
}

type initializerNoContext interface {
	Init() error
}

type initializerNoErrorWrapper struct {
	i initializerNoError
}

func (w initializerNoErrorWrapper) Init(sc filter.ServerContext) error {
	w.i.Init(sc)
	return nil
}

type initializerNoContextWrapper struct {
	i initializerNoContext
}

func (w initializerNoContextWrapper) Init(filter.ServerContext) error {
	return w.i.Init()
}

type destroyerNoError interface {
	Destroy()
}

type closer interface {
	Close() error
}

type destroyerNoErrorWrapper struct {
	d destroyerNoError
}

func (w destroyerNoErrorWrapper) Destroy() error {
	w.d.Destroy()
	return nil
}

type closerWrapper struct {
	c closer
}

func (w closerWrapper) Destroy() error {
	return w.c.Close()
}
