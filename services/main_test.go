package services

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// database/sql keeps one opener goroutine per pool until Close
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}
