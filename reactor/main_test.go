//go:build unix
// +build unix

package reactor

import (
	"os"
	"testing"

	"github.com/fzft/lineserve/log"
)

func TestMain(m *testing.M) {
	if err := log.InitLogger(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}
