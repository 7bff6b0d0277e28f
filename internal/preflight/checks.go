package preflight

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"stayscope/internal/config"
	"stayscope/internal/dataset"
	"stayscope/internal/runs"
)

func pass(name, path, note string) Result {
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, note)}
}

func fail(name, path, problem string) Result {
	return Result{Name: name, Detail: path + ": " + problem}
}

// CheckDirectoryAccess verifies the directory exists and is fully accessible
// to the current user.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return fail(name, path, "missing")
	case err != nil:
		return fail(name, path, err.Error())
	case !info.IsDir():
		return fail(name, path, "not a directory")
	}
	if accessErr := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); accessErr != nil {
		return fail(name, path, fmt.Sprintf("access: %v", accessErr))
	}
	return pass(name, path, "read/write ok")
}

// CheckDataset verifies the CSV exists, is readable, and its header carries
// the columns the audit needs. Only the header line is read, so the check
// stays cheap on large files.
func CheckDataset(name, path string, spec dataset.Spec) Result {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fail(name, path, "missing")
		}
		return fail(name, path, err.Error())
	}
	defer file.Close()

	header, err := bufio.NewReader(file).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fail(name, path, fmt.Sprintf("read header: %v", err))
	}
	if strings.TrimSpace(header) == "" {
		return fail(name, path, "empty file")
	}

	if _, err := dataset.ReadCSV(strings.NewReader(header), spec); err != nil {
		return fail(name, path, err.Error())
	}
	return pass(name, path, "columns ok")
}

// CheckRegistry verifies the run registry opens and answers a query at the
// config's data directory.
func CheckRegistry(ctx context.Context, cfg *config.Config) Result {
	const name = "Run registry"

	dbPath := runs.RegistryPath(cfg)
	store, err := runs.OpenPath(dbPath)
	if err != nil {
		return fail(name, dbPath, err.Error())
	}
	defer store.Close()

	if _, err := store.Stats(ctx); err != nil {
		return fail(name, dbPath, err.Error())
	}
	return pass(name, dbPath, "schema ok")
}
