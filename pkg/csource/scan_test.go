package csource

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestScanDefinitions_FindsTypedDefinition(t *testing.T) {
	src := []byte("#include <stdio.h>\n\nfloat raw_to_celsius(int raw) {\n    return raw * 0.1f;\n}\n")

	defs := ScanDefinitions(src)
	if len(defs) != 1 {
		t.Fatalf("expected 1 definition, got %d: %v", len(defs), defs)
	}
	if defs[0].Name != "raw_to_celsius" {
		t.Errorf("expected name raw_to_celsius, got %q", defs[0].Name)
	}
	if defs[0].Line != 3 {
		t.Errorf("expected line 3, got %d", defs[0].Line)
	}
}

func TestScanDefinitions_Shapes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "pointer return",
			src:  "char *device_name(void) {\n}\n",
			want: []string{"device_name"},
		},
		{
			name: "static qualifier",
			src:  "static int clamp(int v, int lo, int hi) {\n}\n",
			want: []string{"clamp"},
		},
		{
			name: "parameters across lines",
			src:  "int blend(int a,\n          int b) {\n}\n",
			want: []string{"blend"},
		},
		{
			name: "no parameters",
			src:  "void reset() {\n}\n",
			want: []string{"reset"},
		},
		{
			name: "several definitions",
			src:  "int first(void) {\n}\nint second(void) {\n}\n",
			want: []string{"first", "second"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, def := range ScanDefinitions([]byte(tt.src)) {
				got = append(got, def.Name)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScanDefinitions_IgnoresControlFlow(t *testing.T) {
	src := []byte(`void route(int x) {
    if (x > 0) {
        handle(x);
    } else if (x < 0) {
        reject(x);
    }
    for (int i = 0; i < x; i++) {
        tick();
    }
    while (pending()) {
        drain();
    }
    switch (x) {
    case 1: {
        break;
    }
    }
}
`)

	var names []string
	for _, def := range ScanDefinitions(src) {
		names = append(names, def.Name)
	}
	if !reflect.DeepEqual(names, []string{"route"}) {
		t.Errorf("control-flow keywords leaked into definitions: %v", names)
	}
}

func TestScanDefinitions_LineNumbers(t *testing.T) {
	src := []byte("int a(void) {\n}\n\nint b(void) {\n}\n")

	defs := ScanDefinitions(src)
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	if defs[0].Line != 1 || defs[1].Line != 4 {
		t.Errorf("expected lines 1 and 4, got %d and %d", defs[0].Line, defs[1].Line)
	}
}

func TestScanReferences_DistinctInOrder(t *testing.T) {
	src := []byte(`int process(int raw) {
    int c = raw_to_celsius(raw);
    log_reading(c);
    return raw_to_celsius(c);
}
`)

	refs := ScanReferences(src)
	want := []string{"process", "raw_to_celsius", "log_reading"}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("got %v, want %v", refs, want)
	}
}

func TestScanReferences_SkipsKeywords(t *testing.T) {
	src := []byte("void f(void) {\n    if (x) { return; }\n    while (pending) { g(); }\n    n = sizeof(int);\n}\n")

	refs := ScanReferences(src)
	want := []string{"f", "g"}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("got %v, want %v", refs, want)
	}
}

func TestStubs_ExcludesScaffolding(t *testing.T) {
	src := []byte(`#include "unity.h"

void setUp(void) {}
void tearDown(void) {}
void suiteSetUp(void) {}
int suiteTearDown(int failures) { return failures; }

float raw_to_celsius(int raw) {
    return raw * 0.5f;
}

void test_conversion_is_linear(void) {
    TEST_ASSERT_EQUAL_FLOAT(1.0f, raw_to_celsius(2));
}

int main(void) {
    UNITY_BEGIN();
    RUN_TEST(test_conversion_is_linear);
    return UNITY_END();
}
`)

	stubs := Stubs(src)
	if got := stubs.Names(); !reflect.DeepEqual(got, []string{"raw_to_celsius"}) {
		t.Errorf("expected only the local helper as a stub, got %v", got)
	}
	if stubs.Has("setUp") || stubs.Has("main") || stubs.Has("test_conversion_is_linear") {
		t.Error("scaffolding functions must never count as stubs")
	}
}

func TestStubs_EmptyForPureTestFile(t *testing.T) {
	src := []byte(`#include "unity.h"
#include "sensor.h"

void setUp(void) {}
void tearDown(void) {}

void test_reads_zero(void) {
    TEST_ASSERT_EQUAL_INT(0, sensor_read());
}

int main(void) {
    UNITY_BEGIN();
    RUN_TEST(test_reads_zero);
    return UNITY_END();
}
`)

	if stubs := Stubs(src); stubs.Len() != 0 {
		t.Errorf("expected no stubs, got %v", stubs.Names())
	}
}

func TestReadStubs_MissingFile(t *testing.T) {
	stubs, err := ReadStubs(filepath.Join(t.TempDir(), "absent.c"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if stubs == nil || stubs.Len() != 0 {
		t.Errorf("expected an empty usable set, got %v", stubs)
	}
}

func TestStubSet_AddHasNames(t *testing.T) {
	set := make(StubSet)
	set.Add("zeta")
	set.Add("alpha")

	if !set.Has("zeta") || set.Has("missing") {
		t.Error("membership checks failed")
	}
	if got := set.Names(); !reflect.DeepEqual(got, []string{"alpha", "zeta"}) {
		t.Errorf("expected sorted names, got %v", got)
	}
}
