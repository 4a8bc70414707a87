// Package mock implements a catalog provider that fails every call, for
// exercising API error paths in tests.
package mock

import (
	"errors"

	"github.com/pixelforge/pixelforge/catalog"
)

// ErrMock is the error every Provider method returns.
var ErrMock = errors.New("mock catalog error")

// Provider fails every call.
type Provider struct{}

func (Provider) Get(string) (catalog.Image, error)               { return catalog.Image{}, ErrMock }
func (Provider) GetRandom() (catalog.Image, error)               { return catalog.Image{}, ErrMock }
func (Provider) GetRandomWithSeed(string) (catalog.Image, error) { return catalog.Image{}, ErrMock }
func (Provider) List(int, int) ([]catalog.Image, error)          { return nil, ErrMock }
func (Provider) ListAll() ([]catalog.Image, error)               { return nil, ErrMock }
