package trace_test

import (
	"bytes"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/db47h/vsim"
	"github.com/db47h/vsim/sap1"
	"github.com/db47h/vsim/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sigs(clk, a uint64) []vsim.Signal {
	return []vsim.Signal{
		{Name: "clk", Width: 1, Value: clk},
		{Name: "a", Width: 8, Value: a},
	}
}

type nopCloser struct {
	bytes.Buffer
	closed int
}

func (c *nopCloser) Close() error {
	c.closed++
	return nil
}

func TestVCD(t *testing.T) {
	var buf nopCloser
	v := trace.NewVCD(&buf, "cpu")
	require.NoError(t, v.Dump(0, sigs(1, 0)))
	require.NoError(t, v.Dump(1, sigs(0, 0)))
	require.NoError(t, v.Dump(2, sigs(1, 42)))
	require.NoError(t, v.Dump(3, sigs(1, 42))) // no change
	require.NoError(t, v.Close())
	require.NoError(t, v.Close())
	assert.Equal(t, 1, buf.closed)

	assert.Equal(t, `$version vsim $end
$timescale 1ns $end
$scope module cpu $end
$var wire 1 ! clk $end
$var wire 8 " a [7:0] $end
$upscope $end
$enddefinitions $end
#0
$dumpvars
1!
b0 "
$end
#1
0!
#2
1!
b101010 "
#4
`, buf.String())

	assert.Error(t, v.Dump(5, sigs(0, 0)), "dump after close")
}

func TestVCD_errors(t *testing.T) {
	v := trace.NewVCD(new(bytes.Buffer), "cpu")
	require.NoError(t, v.Dump(4, sigs(0, 0)))

	err := v.Dump(4, sigs(1, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not after")

	err = v.Dump(5, sigs(1, 0)[:1])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signal count changed")

	err = v.Dump(6, []vsim.Signal{{Name: "clk", Width: 1}, {Name: "b", Width: 8}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "renamed from a to b")
	assert.NoError(t, v.Close())
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestVCD_writeError(t *testing.T) {
	v := trace.NewVCD(failWriter{}, "cpu")
	// small writes are buffered
	require.NoError(t, v.Dump(0, sigs(0, 0)))
	err := v.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestVCD_manySignals(t *testing.T) {
	var buf bytes.Buffer
	v := trace.NewVCD(&buf, "top")
	var ss []vsim.Signal
	for i := 0; i < 200; i++ {
		ss = append(ss, vsim.Signal{Name: "s" + string(rune('a'+i%26)) + strings.Repeat("x", i/26), Width: 1})
	}
	require.NoError(t, v.Dump(0, ss))
	require.NoError(t, v.Close())

	ids := make(map[string]bool)
	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(l, "$var ") {
			f := strings.Fields(l)
			require.False(t, ids[f[3]], "duplicate id %q", f[3])
			ids[f[3]] = true
		}
	}
	assert.Len(t, ids, 200)
}

func TestCreateVCD(t *testing.T) {
	name := filepath.Join(t.TempDir(), "logs", "cpu_vsim.vcd")
	tr, err := trace.Create("VCD", name, "")
	require.NoError(t, err)
	require.NoError(t, tr.Dump(0, sigs(1, 1)))
	require.NoError(t, tr.Close())

	b, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Contains(t, string(b), "$scope module cpu_vsim $end\n")
}

func TestCreate_unknown(t *testing.T) {
	_, err := trace.Create("fst", "x", "")
	require.Error(t, err)
	assert.Equal(t, `unknown trace format "fst"`, err.Error())
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "cpu_vsim.vcd", trace.FileName(trace.FormatVCD))
	assert.Equal(t, "cpu_vsim.db", trace.FileName(trace.FormatSQLite))
	assert.Equal(t, "VCD", trace.Title("vcd"))
	assert.Equal(t, "SQLite", trace.Title("SQLITE"))
}

func openDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", name)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLite(t *testing.T) {
	name := filepath.Join(t.TempDir(), "trace", "cpu_vsim.db")
	s, err := trace.OpenSQLite(name, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", s.RunID())

	require.NoError(t, s.Dump(0, sigs(1, 0)))
	require.NoError(t, s.Dump(1, sigs(0, 0)))
	require.NoError(t, s.Dump(2, sigs(1, 42)))
	require.NoError(t, s.Dump(3, sigs(1, 42)))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Error(t, s.Dump(4, sigs(0, 0)))

	db := openDB(t, name)
	var (
		finished sql.NullString
		last     sql.NullInt64
	)
	require.NoError(t, db.QueryRow(`SELECT finished_at, last_time FROM runs WHERE id = ?`, "run-1").Scan(&finished, &last))
	assert.True(t, finished.Valid)
	assert.Equal(t, int64(3), last.Int64)

	rows, err := db.Query(`SELECT s.name, p.time, p.value FROM samples p
		JOIN signals s ON s.id = p.signal_id
		WHERE s.run_id = ? ORDER BY s.name, p.time`, "run-1")
	require.NoError(t, err)
	defer rows.Close()
	var got []string
	for rows.Next() {
		var (
			n     string
			tm, v int64
		)
		require.NoError(t, rows.Scan(&n, &tm, &v))
		got = append(got, n+"@"+strconv.FormatInt(tm, 10)+"="+strconv.FormatInt(v, 10))
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"a@0=0", "a@2=42", "clk@0=1", "clk@1=0", "clk@2=1"}, got)
}

func TestSQLite_runs(t *testing.T) {
	name := filepath.Join(t.TempDir(), "cpu_vsim.db")
	for i := 0; i < 2; i++ {
		s, err := trace.OpenSQLite(name, "")
		require.NoError(t, err)
		require.Len(t, s.RunID(), 36)
		require.NoError(t, s.Dump(0, sigs(0, 0)))
		require.NoError(t, s.Close())
	}
	var n int
	require.NoError(t, openDB(t, name).QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestSQLite_duplicateRun(t *testing.T) {
	name := filepath.Join(t.TempDir(), "cpu_vsim.db")
	s, err := trace.OpenSQLite(name, "same")
	require.NoError(t, err)
	require.NoError(t, s.Close())
	_, err = trace.OpenSQLite(name, "same")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert run same")
}

func TestSQLite_errors(t *testing.T) {
	s, err := trace.OpenSQLite(filepath.Join(t.TempDir(), "x.db"), "")
	require.NoError(t, err)
	require.NoError(t, s.Dump(2, sigs(0, 0)))
	assert.Error(t, s.Dump(2, sigs(0, 0)))
	assert.Error(t, s.Dump(3, sigs(0, 0)[:1]))
	require.NoError(t, s.Close())
}

// A full SAP-1 run traced to both formats.
func TestSession_traced(t *testing.T) {
	dir := t.TempDir()
	for _, format := range trace.Formats {
		t.Run(format, func(t *testing.T) {
			name := filepath.Join(dir, trace.FileName(format))
			tr, err := trace.Create(format, name, "sap1-"+format)
			require.NoError(t, err)
			cpu, err := sap1.New(sap1.Default(), 1)
			require.NoError(t, err)

			var console, file bytes.Buffer
			s := vsim.NewSession(cpu, vsim.NewLogger(&console, &file), vsim.Options{
				Trace:       tr,
				TraceFormat: trace.Title(format),
				TracePath:   name,
			})
			res := s.Run()
			require.NoError(t, res.TraceErr)
			assert.Equal(t, uint64(18), res.Cycles)
			assert.Contains(t, file.String(), "Writing "+trace.Title(format)+" waveform file to")

			fi, err := os.Stat(name)
			require.NoError(t, err)
			assert.NotZero(t, fi.Size())
		})
	}

	// check the output register in the database
	db := openDB(t, filepath.Join(dir, trace.FileName(trace.FormatSQLite)))
	var v, tm int64
	require.NoError(t, db.QueryRow(`SELECT p.value, p.time FROM samples p
		JOIN signals s ON s.id = p.signal_id
		WHERE s.run_id = ? AND s.name = ? AND p.value <> 0`, "sap1-sqlite", sap1.PinOutValue).Scan(&v, &tm))
	assert.Equal(t, int64(42), v)
	// latched by the raising edge of cycle 13
	assert.Equal(t, int64(26), tm)
}
