// Command validate checks the tables written by stationmatch: headers,
// ascending distance order, the recency filter and rounding precision.
//
// Usage:
//
//	go run ./cmd/validate -dir output -min-end-year 2010 -precision 4
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/station-match-etl/internal/domain"
	"github.com/couchcryptid/station-match-etl/internal/table"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// tableCheck describes what must hold for one output table.
type tableCheck struct {
	file     string
	header   []string
	sorted   bool     // rows ascend by the distance column
	recent   bool     // the end column is at least the minimum end year
	rounded  []string // columns carrying at most precision decimals
	rowCount int
}

func main() {
	dir := flag.String("dir", "output", "directory holding the written CSV tables")
	minEndYear := flag.Int("min-end-year", 2010, "recency threshold the run used")
	precision := flag.Int("precision", domain.DefaultPrecision, "decimal places the run used")
	registry := flag.String("registry", table.DefaultNames.Registry, "registry table base name")
	network := flag.String("network", table.DefaultNames.Network, "network table base name")
	threeWay := flag.String("three-way", table.DefaultNames.ThreeWay, "three-way table base name")
	flag.Parse()

	names := table.Names{Registry: *registry, Network: *network, ThreeWay: *threeWay}
	if code := run(*dir, names, *minEndYear, *precision); code != 0 {
		os.Exit(code)
	}
}

func run(dir string, names table.Names, minEndYear, precision int) int {
	fmt.Println("=== Station Match Output Validation ===")
	fmt.Println()

	checks := []*tableCheck{
		{file: names.Registry, header: domain.RegistryMatchHeader, recent: true},
		{file: names.Network, header: domain.NetworkMatchHeader, sorted: true, rounded: []string{"lat_cmonoc", "lon_cmonoc", "distance"}},
		{file: names.ThreeWay, header: domain.ThreeWayMatchHeader, sorted: true, recent: true, rounded: []string{"lat_cmonoc", "lon_cmonoc", "distance"}},
	}

	var phases []*phase
	for _, c := range checks {
		phases = append(phases, c.validate(dir, minEndYear, precision))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	for _, c := range checks {
		fmt.Printf("Rows: %-24s %d\n", c.file, c.rowCount)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func (c *tableCheck) validate(dir string, minEndYear, precision int) *phase {
	p := &phase{name: c.file}

	f, err := os.Open(filepath.Join(dir, c.file+".csv"))
	if err != nil {
		p.errorf("open: %v", err)
		return p
	}
	defer f.Close()

	header, rows, err := table.ReadCSV(f)
	if err != nil {
		p.errorf("read: %v", err)
		return p
	}
	c.rowCount = len(rows)
	c.check(p, header, rows, minEndYear, precision)
	return p
}

// check validates parsed rows against the table's rules.
func (c *tableCheck) check(p *phase, header []string, rows [][]string, minEndYear, precision int) {
	if !slices.Equal(header, c.header) {
		p.errorf("header: got %v, want %v", header, c.header)
		return
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}

	prev := -1.0
	for i, row := range rows {
		line := i + 2
		if len(row) != len(header) {
			p.errorf("line %d: %d fields, want %d", line, len(row), len(header))
			continue
		}

		if c.recent {
			end, err := strconv.Atoi(row[col["end"]])
			switch {
			case err != nil:
				p.errorf("line %d: end %q is not a year", line, row[col["end"]])
			case end < minEndYear:
				p.errorf("line %d: end %d before %d", line, end, minEndYear)
			}
		}

		for _, name := range c.rounded {
			if d := decimals(row[col[name]]); d > precision {
				p.errorf("line %d: %s %q has %d decimals, want at most %d", line, name, row[col[name]], d, precision)
			}
		}

		if c.sorted {
			d, err := strconv.ParseFloat(row[col["distance"]], 64)
			if err != nil {
				p.errorf("line %d: distance %q is not a number", line, row[col["distance"]])
				continue
			}
			if d < prev {
				p.errorf("line %d: distance %v after %v", line, d, prev)
			}
			prev = d
		}
	}
}

func decimals(s string) int {
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return 0
	}
	return len(s) - i - 1
}
