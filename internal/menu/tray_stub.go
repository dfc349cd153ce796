//go:build !cgo && !windows
// +build !cgo,!windows

package menu

import "context"

type stubController struct{}

func newTrayController(func(context.Context, Action)) trayController {
	return stubController{}
}

func (stubController) Run(context.Context, <-chan Update) error {
	return ErrTrayUnavailable
}
