package runlog

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestSuccessDropsDetails(t *testing.T) {
	var out bytes.Buffer
	run := Begin(log.New(&out, "", 0))
	if _, err := uuid.Parse(run.ID); err != nil {
		t.Fatalf("run ID %q is not a UUID: %v", run.ID, err)
	}

	run.Appendf("fetched %d bytes", 42)
	run.Success("12 pictures rendered")

	got := out.String()
	if strings.Contains(got, "fetched") {
		t.Fatalf("details leaked on success: %q", got)
	}
	if got != "["+run.ID+"] 12 pictures rendered\n" {
		t.Fatalf("summary = %q", got)
	}
}

func TestFlushErrorReplaysDetails(t *testing.T) {
	var out bytes.Buffer
	run := Begin(log.New(&out, "", 0))

	run.Appendf("fetching %s", "photos.csv")
	run.FlushError(errors.New("connection refused"))

	got := out.String()
	fetchAt := strings.Index(got, "fetching photos.csv")
	errAt := strings.Index(got, "ERROR: connection refused")
	if fetchAt < 0 || errAt < 0 || fetchAt > errAt {
		t.Fatalf("expected details before the error, got %q", got)
	}
}

func TestWarnfIsImmediate(t *testing.T) {
	var out bytes.Buffer
	run := Begin(log.New(&out, "", 0))

	run.Warnf("row %d: %s", 3, "TooFewFields")
	run.Success("done")

	if !strings.Contains(out.String(), "WARN: row 3: TooFewFields") {
		t.Fatalf("warning not written: %q", out.String())
	}
}
