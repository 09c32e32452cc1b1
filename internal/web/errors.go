package web

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// BindError is returned when the listening socket cannot be created.
type BindError struct {
	Port int
	Err  error
}

func (e *BindError) Error() string {
	switch {
	case e.InUse():
		return fmt.Sprintf("port %d is already in use", e.Port)
	case e.Permission():
		return fmt.Sprintf("no permission to bind port %d", e.Port)
	}
	return fmt.Sprintf("bind port %d: %v", e.Port, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// InUse reports whether another process already holds the port.
func (e *BindError) InUse() bool {
	return errors.Is(e.Err, unix.EADDRINUSE)
}

// Permission reports whether the process may not bind the port, which is
// usually a privileged port below 1024.
func (e *BindError) Permission() bool {
	return errors.Is(e.Err, unix.EACCES) || errors.Is(e.Err, unix.EPERM)
}

// DirectoryError is returned when the root directory cannot be opened.
type DirectoryError struct {
	Path string
	Err  error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("open root directory %s: %v", e.Path, e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }
