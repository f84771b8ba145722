// Package atomicwrite provides functions to write files atomically.
package atomicwrite

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	defaultPerms    os.FileMode = 0644
	defaultDirPerms os.FileMode = 0755
)

// Write atomically overwrites the file at filename with the content written by the
// given function.
// The file and any missing parent directories are created if they don't already exist.
// If the file exists, its permissions are preserved.
func Write(filename string, contentWriter func(io.Writer) error) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, defaultDirPerms); err != nil {
		return errors.Wrap(err, errString(filename))
	}
	perms := defaultPerms
	if info, err := os.Stat(filename); err == nil {
		perms = info.Mode().Perm()
	}
	// Same directory as the target, so the rename stays within one filesystem.
	tf, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".tmp-")
	if err != nil {
		return errors.Wrap(err, errString(filename))
	}
	name := tf.Name()
	if err = contentWriter(tf); err != nil {
		tf.Close()
		os.Remove(name)
		return errors.Wrap(err, errString(filename))
	}
	if err = tf.Chmod(perms); err != nil {
		tf.Close()
		os.Remove(name)
		return errors.Wrap(err, errString(filename))
	}
	if err = tf.Close(); err != nil {
		os.Remove(name)
		return errors.Wrap(err, errString(filename))
	}
	if err = os.Rename(name, filename); err != nil {
		os.Remove(name)
		return errors.Wrap(err, errString(filename))
	}
	return nil
}

// WriteString is a shorthand for Write with a fixed string as the content.
func WriteString(filename, content string) error {
	return Write(filename, func(w io.Writer) error {
		_, err := io.WriteString(w, content)
		return err
	})
}

func errString(filename string) string { return "atomic write to " + filename + " failed" }
