// Package snapshot compares values against golden JSON files under testdata/
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"headsup-server/internal/util"
)

var (
	calls = make(map[string]int)
	lock  sync.Mutex
)

// update rewrites every golden file instead of comparing against it
func update() bool {
	return util.Getenv("HEADSUP_UPDATE_SNAPSHOTS", "") == "1"
}

func filename(t *testing.T) string {
	name := strings.NewReplacer("/", "-", " ", "_").Replace(t.Name())

	lock.Lock()
	call := calls[name]
	calls[name] = call + 1
	lock.Unlock()

	return filepath.Join("testdata", fmt.Sprintf("%s-%d.json", name, call))
}

// ValidateSnapshot compares obj, encoded as indented JSON, to testdata/<test>-<n>.json,
// where n counts the snapshots taken by the test. The file is written the first time a
// snapshot is taken, or on every run when HEADSUP_UPDATE_SNAPSHOTS=1
func ValidateSnapshot(t *testing.T, obj interface{}, msgAndArgs ...interface{}) {
	t.Helper()

	file := filename(t)
	got, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		t.Fatalf("could not encode snapshot: %v", err)
	}

	expects, err := os.ReadFile(file)
	if os.IsNotExist(err) || update() {
		write(t, file, got)
		return
	} else if err != nil {
		t.Fatalf("could not read snapshot: %v", err)
	}

	if !assert.JSONEq(t, string(expects), string(got), msgAndArgs...) {
		t.Logf("snapshot %s, run with HEADSUP_UPDATE_SNAPSHOTS=1 to accept the change", file)
	}
}

func write(t *testing.T, file string, b []byte) {
	t.Helper()

	logrus.WithField("filename", file).Info("writing snapshot file")
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		t.Fatalf("could not create snapshot dir: %v", err)
	}

	if err := os.WriteFile(file, append(b, '\n'), 0644); err != nil {
		t.Fatalf("could not write snapshot: %v", err)
	}
}
