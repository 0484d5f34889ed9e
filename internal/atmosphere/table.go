// Package atmosphere holds the piecewise-exponential density table and the
// drag decay and lifetime estimates built on it.
package atmosphere

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Band is one table row. Density above H0 falls off as exp(-(h-H0)/ScaleHeight)
// until the next row takes over. T (K), P (Pa) and M (kg/kmol) are carried for
// reference only.
type Band struct {
	H0          float64 `json:"h_km"`
	Rho0        float64 `json:"rho_kg_m3"`
	ScaleHeight float64 `json:"scale_height_km"`
	T           float64 `json:"t_k"`
	P           float64 `json:"p_pa"`
	M           float64 `json:"m"`
}

// Table is an immutable set of bands in strictly increasing H0.
type Table struct {
	bands []Band
}

// RangeError reports an altitude the table does not cover.
type RangeError struct {
	AltitudeKm float64
	MinKm      float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("altitude %.3f km below atmosphere table minimum %.3f km", e.AltitudeKm, e.MinKm)
}

// NewTable validates and copies bands.
func NewTable(bands []Band) (*Table, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("atmosphere table is empty")
	}
	for i, b := range bands {
		if !(b.Rho0 > 0) || !(b.ScaleHeight > 0) || math.IsNaN(b.H0) || math.IsInf(b.H0, 0) {
			return nil, fmt.Errorf("atmosphere row %d (h=%g): density and scale height must be positive", i+1, b.H0)
		}
		if i > 0 && b.H0 <= bands[i-1].H0 {
			return nil, fmt.Errorf("atmosphere row %d: altitude %g not above previous %g", i+1, b.H0, bands[i-1].H0)
		}
	}
	return &Table{bands: append([]Band(nil), bands...)}, nil
}

// ParseTable reads a table with one header line followed by rows of
// h, rho, H, T, P, M separated by commas or whitespace. T, P and M may be
// omitted. Blank lines and lines starting with '#' are ignored.
func ParseTable(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	var (
		bands  []Band
		header bool
		lineNo int
	)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !header {
			header = true
			continue
		}

		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ';' || r == ' ' || r == '\t'
		})
		if len(fields) < 3 {
			return nil, fmt.Errorf("atmosphere line %d: want at least 3 columns, got %d", lineNo, len(fields))
		}
		var vals [6]float64
		for i := 0; i < len(fields) && i < len(vals); i++ {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, fmt.Errorf("atmosphere line %d column %d: %w", lineNo, i+1, err)
			}
			vals[i] = v
		}
		bands = append(bands, Band{
			H0: vals[0], Rho0: vals[1], ScaleHeight: vals[2],
			T: vals[3], P: vals[4], M: vals[5],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading atmosphere table: %w", err)
	}
	return NewTable(bands)
}

// LoadTable reads a table file from disk.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening atmosphere table: %w", err)
	}
	defer f.Close()

	t, err := ParseTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Bands returns a copy of the rows.
func (t *Table) Bands() []Band {
	return append([]Band(nil), t.bands...)
}

// Band returns the row with the largest H0 not above altKm. Altitudes above
// the last row use the last row's exponential.
func (t *Table) Band(altKm float64) (Band, error) {
	if math.IsNaN(altKm) || altKm < t.bands[0].H0 {
		return Band{}, &RangeError{AltitudeKm: altKm, MinKm: t.bands[0].H0}
	}
	i := sort.Search(len(t.bands), func(i int) bool { return t.bands[i].H0 > altKm })
	return t.bands[i-1], nil
}

// DensityAt returns the density in kg/m³ at altKm.
func (t *Table) DensityAt(altKm float64) (float64, error) {
	b, err := t.Band(altKm)
	if err != nil {
		return 0, err
	}
	return b.Rho0 * math.Exp(-(altKm-b.H0)/b.ScaleHeight), nil
}

//go:embed exponential.csv
var exponentialCSV string

var (
	defaultOnce  sync.Once
	defaultMu    sync.Mutex
	defaultPath  string
	defaultTable *Table
	defaultErr   error
)

// SetDefaultPath makes Default load path instead of the built-in table. It
// has no effect once Default has been called.
func SetDefaultPath(path string) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultPath = path
}

// Default returns the process-wide table, loading it on first use. The
// built-in table is the exponential reference atmosphere (Vallado, Table 8-4).
func Default() (*Table, error) {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		path := defaultPath
		defaultMu.Unlock()

		if path != "" {
			defaultTable, defaultErr = LoadTable(path)
			return
		}
		defaultTable, defaultErr = ParseTable(strings.NewReader(exponentialCSV))
	})
	return defaultTable, defaultErr
}

// DensityAt evaluates the default table.
func DensityAt(altKm float64) (float64, error) {
	t, err := Default()
	if err != nil {
		return 0, err
	}
	return t.DensityAt(altKm)
}
