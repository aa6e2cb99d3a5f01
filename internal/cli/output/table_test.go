package output

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestTableFormatter_Struct(t *testing.T) {
	data := sample{Command: "SET", Requests: 100, QPS: 50000, P99: 2 * time.Millisecond}

	tests := []struct {
		name    string
		wide    bool
		want    []string
		notWant []string
	}{
		{
			name:    "narrow",
			want:    []string{"FIELD", "command", "SET", "requests", "100", "qps", "50000.00"},
			notWant: []string{"p99", "internal"},
		},
		{
			name: "wide",
			wide: true,
			want: []string{"p99", "2ms"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&TableFormatter{Wide: tt.wide}).Format(&buf, &data); err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output should not contain %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestTableFormatter_Slice(t *testing.T) {
	data := []*sample{
		{Command: "SET", Requests: 10},
		{Command: "GET", Requests: 20},
	}

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "COMMAND") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "GET") {
		t.Errorf("last row = %q", lines[2])
	}
}

func TestTableFormatter_ScalarsAndNil(t *testing.T) {
	var buf bytes.Buffer
	f := &TableFormatter{}

	if err := f.Format(&buf, nil); err != nil || buf.Len() != 0 {
		t.Errorf("Format(nil) wrote %q, err %v", buf.String(), err)
	}
	if err := f.Format(&buf, []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	if err := f.Format(&buf, 42); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "VALUE\na\nb\n42\n" {
		t.Errorf("output = %q", got)
	}
}

func TestTable_Render(t *testing.T) {
	tbl := &Table{Headers: []string{"KEY", "VALUE"}}
	tbl.AddRow("k1", "v1")
	tbl.AddRow("longer-key", "v2")

	var buf bytes.Buffer
	if err := tbl.Render(&buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := "KEY         VALUE\nk1          v1\nlonger-key  v2\n"
	if buf.String() != want {
		t.Errorf("Render() = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := (&TableFormatter{NoHeaders: true}).Format(&buf, tbl); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "KEY") {
		t.Errorf("NoHeaders output contains header: %q", buf.String())
	}
}

func TestFormatValue(t *testing.T) {
	var nilPtr *int
	n := 7
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "x", "x"},
		{"empty string", "", "-"},
		{"int", 12, "12"},
		{"float", 1.234, "1.23"},
		{"bool", true, "true"},
		{"bytes", []byte("a\r\n"), `"a\r\n"`},
		{"duration", 1500 * time.Microsecond, "1.5ms"},
		{"zero time", time.Time{}, "-"},
		{"nil pointer", nilPtr, "-"},
		{"pointer", &n, "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatValue(reflect.ValueOf(tt.in)); got != tt.want {
				t.Errorf("formatValue(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	if got := formatValue(reflect.Value{}); got != "" {
		t.Errorf("formatValue(invalid) = %q, want empty", got)
	}
}
