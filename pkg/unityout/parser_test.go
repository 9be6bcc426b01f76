package unityout

import (
	"strings"
	"testing"
)

func TestParseStream_CountsPassAndFailLines(t *testing.T) {
	input := `tests/test_sensor.c:12:test_reads_zero:PASS
tests/test_sensor.c:19:test_clamps_high:PASS
tests/test_sensor.c:26:test_rejects_negative:FAIL: Expected 0 Was -1
`
	tally, err := ParseStream(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Tally{Total: 3, Passed: 2, Failed: 1}
	if tally != want {
		t.Errorf("got %+v, want %+v", tally, want)
	}
}

func TestParseStream_LineTallyIsOrderIndependent(t *testing.T) {
	forward := "a.c:1:t1:PASS\nb.c:2:t2:FAIL\nc.c:3:t3:PASS\n"
	backward := "c.c:3:t3:PASS\nb.c:2:t2:FAIL\na.c:1:t1:PASS\n"

	first, _ := ParseStream(strings.NewReader(forward))
	second, _ := ParseStream(strings.NewReader(backward))
	if first != second {
		t.Errorf("order changed the tally: %+v vs %+v", first, second)
	}
}

func TestParseStream_IgnoredLinesAreNotPartOfTotal(t *testing.T) {
	input := "a.c:1:t1:PASS\nb.c:2:t2:IGNORE: not on this target\n"

	tally, _ := ParseStream(strings.NewReader(input))
	want := Tally{Total: 1, Passed: 1, Ignored: 1}
	if tally != want {
		t.Errorf("got %+v, want %+v", tally, want)
	}
}

func TestParseStream_SummaryOverridesLineTally(t *testing.T) {
	// Only one assertion line survived in the captured output, but the
	// summary knows about five.
	input := `tests/test_conv.c:9:test_zero:PASS

-----------------------
5 Tests 2 Failures 1 Ignored
FAIL
`
	tally, err := ParseStream(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Tally{Total: 5, Passed: 3, Failed: 2, Ignored: 1, FromSummary: true}
	if tally != want {
		t.Errorf("got %+v, want %+v", tally, want)
	}
}

func TestParseStream_SummaryWinsRegardlessOfPosition(t *testing.T) {
	input := `3 Tests 0 Failures 0 Ignored
a.c:1:t1:PASS
b.c:2:t2:FAIL
`
	tally, _ := ParseStream(strings.NewReader(input))
	if !tally.FromSummary {
		t.Fatal("expected the summary to be authoritative")
	}
	if tally.Total != 3 || tally.Passed != 3 || tally.Failed != 0 {
		t.Errorf("summary did not override line counts: %+v", tally)
	}
}

func TestParseStream_LastSummaryWins(t *testing.T) {
	input := `2 Tests 1 Failures 0 Ignored
4 Tests 0 Failures 0 Ignored
`
	tally, _ := ParseStream(strings.NewReader(input))
	want := Tally{Total: 4, Passed: 4, Failed: 0, Ignored: 0, FromSummary: true}
	if tally != want {
		t.Errorf("got %+v, want %+v", tally, want)
	}
}

func TestParseStream_SummaryToleratesIndentation(t *testing.T) {
	tally, _ := ParseStream(strings.NewReader("   7 Tests 1 Failures 0 Ignored\n"))
	if !tally.FromSummary || tally.Total != 7 || tally.Passed != 6 {
		t.Errorf("indented summary not recognized: %+v", tally)
	}
}

func TestParseStream_MixedMarkers(t *testing.T) {
	tally, _ := ParseStream(strings.NewReader("ABC:PASS\nDEF:FAIL\n"))
	want := Tally{Total: 2, Passed: 1, Failed: 1}
	if tally != want {
		t.Errorf("got %+v, want %+v", tally, want)
	}
}

func TestParseStream_EmptyInput(t *testing.T) {
	tally, err := ParseStream(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tally != (Tally{}) {
		t.Errorf("expected zero tally, got %+v", tally)
	}
}

func TestParseStream_RealisticUnityRun(t *testing.T) {
	input := `Unity test run 1 of 1
tests/test_temp_sensor.c:15:test_raw_to_celsius_zero:PASS
tests/test_temp_sensor.c:21:test_raw_to_celsius_max:PASS
tests/test_temp_sensor.c:27:test_invalid_raw:FAIL: Expected -1 Was 0

-----------------------
3 Tests 1 Failures 0 Ignored
FAIL
`
	tally, err := ParseStream(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Tally{Total: 3, Passed: 2, Failed: 1, Ignored: 0, FromSummary: true}
	if tally != want {
		t.Errorf("got %+v, want %+v", tally, want)
	}
}

func TestParseBytes_MatchesParseStream(t *testing.T) {
	input := "a.c:1:t1:PASS\n2 Tests 1 Failures 0 Ignored\n"

	fromBytes := ParseBytes([]byte(input))
	fromStream, _ := ParseStream(strings.NewReader(input))
	if fromBytes != fromStream {
		t.Errorf("ParseBytes diverged: %+v vs %+v", fromBytes, fromStream)
	}
}
