// Command genmock writes deterministic synthetic station catalogs in the
// three native formats, for smoke runs and benchmarks. Each file is parsed
// back with the catalog package before the command reports success.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -stations 500 -sites 120 -seed 1
package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/station-match-etl/internal/catalog"
	"github.com/couchcryptid/station-match-etl/internal/domain"
)

// China bounding box the synthetic stations are drawn from.
const (
	minLat, maxLat = 18.0, 53.5
	minLon, maxLon = 73.5, 135.0
)

var provinces = []string{"Beijing", "Hebei", "Shanxi", "Liaoning", "Jilin", "Jiangsu", "Zhejiang", "Anhui", "Fujian", "Shandong", "Henan", "Hubei", "Hunan", "Guangdong", "Sichuan", "Yunnan", "Gansu", "Xinjiang"}

// files is a generated set of catalogs.
type files struct {
	global     []byte
	national   []byte
	monitoring []byte
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "data/mock", "output directory")
	stations := flag.Int("stations", 500, "national registry stations")
	sites := flag.Int("sites", 120, "monitoring network sites")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	if *stations < 1 || *sites < 1 {
		flag.Usage()
		return fmt.Errorf("-stations and -sites must be positive")
	}

	out, err := generate(rand.New(rand.NewSource(*seed)), *stations, *sites)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}
	targets := []struct {
		kind domain.CatalogKind
		name string
		data []byte
	}{
		{domain.GlobalRegistry, "igra2-station-list.txt", out.global},
		{domain.NationalRegistry, "ChinaMetSites.csv", out.national},
		{domain.MonitoringRegistry, "CmonocSites.txt", out.monitoring},
	}
	for _, t := range targets {
		path := filepath.Join(*outDir, t.name)
		if err := os.WriteFile(path, t.data, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		cat, err := catalog.LoadFile(t.kind, path)
		if err != nil {
			return fmt.Errorf("re-read %s: %w", path, err)
		}
		log.Printf("%s: %d stations (%d with coordinates) -> %s", t.kind, cat.Len(), cat.WithCoordinates(), path)
	}
	return nil
}

// generate builds the three catalogs. Roughly two thirds of the national
// stations get an IGRA entry, a quarter of those stopped reporting before
// 2010, and a few IGRA stations carry missing-value sentinels.
func generate(rng *rand.Rand, stations, sites int) (files, error) {
	var global, national, monitoring bytes.Buffer

	cw := csv.NewWriter(&national)
	if err := cw.Write([]string{"province", "id_met", "city", "lat", "lon", "alt_sensor", "alt_site"}); err != nil {
		return files{}, err
	}

	type hub struct{ lat, lon float64 }
	hubs := make([]hub, 0, stations)

	for i := range stations {
		id := 50000 + i*5 + rng.Intn(5)
		lat := minLat + rng.Float64()*(maxLat-minLat)
		lon := minLon + rng.Float64()*(maxLon-minLon)
		alt := rng.Float64() * 3000
		hubs = append(hubs, hub{lat, lon})

		province := provinces[rng.Intn(len(provinces))]
		err := cw.Write([]string{
			province,
			strconv.Itoa(id),
			fmt.Sprintf("City%03d", i),
			strconv.FormatFloat(lat, 'f', 4, 64),
			strconv.FormatFloat(lon, 'f', 4, 64),
			strconv.FormatFloat(alt+3, 'f', 1, 64),
			strconv.FormatFloat(alt, 'f', 1, 64),
		})
		if err != nil {
			return files{}, err
		}

		if rng.Intn(3) == 0 {
			continue
		}
		start := 1940 + rng.Intn(50)
		end := 2010 + rng.Intn(15)
		if rng.Intn(4) == 0 {
			end = start + rng.Intn(2009-start)
		}
		fmt.Fprintf(&global, "%-11s %8.4f %9.4f %6.1f %-2s %-30s %4d %4d %6d\n",
			fmt.Sprintf("CHM000%05d", id), lat, lon, alt, "", fmt.Sprintf("STATION %d", id), start, end, rng.Intn(90000))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return files{}, err
	}

	for i := range 3 {
		fmt.Fprintf(&global, "%-11s %8.4f %9.4f %6.1f %-2s %-30s %4d %4d %6d\n",
			fmt.Sprintf("ZZXUAMOB%03d", i), -99.9, -999.9, -999.9, "", "MOBILE", 2015, 2020, 10)
	}

	fmt.Fprintln(&monitoring, "# site  domes      receiver  antenna  lat      lon       alt")
	for i := range sites {
		h := hubs[rng.Intn(len(hubs))]
		fmt.Fprintf(&monitoring, "%-7s %-10s %-9s %-8s %-8.4f %-9.4f %.1f\n",
			siteID(i), fmt.Sprintf("2%04dM001", i), "TRM59800", "NONE",
			h.lat+rng.NormFloat64()*0.3, h.lon+rng.NormFloat64()*0.3, rng.Float64()*3000)
	}

	return files{global: global.Bytes(), national: national.Bytes(), monitoring: monitoring.Bytes()}, nil
}

// siteID returns a four-letter site code: AAAA, AAAB, ...
func siteID(i int) string {
	b := []byte("AAAA")
	for p := 3; p >= 0 && i > 0; p-- {
		b[p] = byte('A' + i%26)
		i /= 26
	}
	return string(b)
}
