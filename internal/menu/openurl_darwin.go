//go:build darwin
// +build darwin

package menu

import "os/exec"

func launchURL(raw string) error {
	return exec.Command("open", raw).Start()
}
