//go:build !unix

package runtimeexec

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}
