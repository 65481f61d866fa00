// Copyright © 2026 Enrik Berkhan.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../../LICENSE.md.

// Command avalanche measures the key/IV diffusion of the dragon cipher:
// for every single-bit change of the key or IV it compares the resulting
// keystream with a baseline and records the fraction of differing bits.
// A well-diffusing cipher sits at 0.5 for every position.  Results are
// written as an HTML page of bar charts.
package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"math"
	"math/bits"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/enrikb/spitfire/dragon"
)

var (
	cipherBits = flag.Int("bits", 256, "cipher strength: 128 or 256")
	sampleLen  = flag.Int("sample", 4096, "keystream bytes compared per bit flip (multiple of 128)")
	outPath    = flag.String("o", "avalanche.html", "output HTML file")
)

func keystream(key, iv []byte, n int) []byte {
	c, err := dragon.NewCipher(key, iv)
	if err != nil {
		log.Fatalf("cipher setup: %v", err)
	}
	out := make([]byte, n)
	c.KeystreamBlocks(out, n/dragon.BlockSize)
	return out
}

func diffRatio(a, b []byte) float64 {
	nbits := 0
	for i := range a {
		nbits += bits.OnesCount8(a[i] ^ b[i])
	}
	return float64(nbits) / float64(len(a)*8)
}

// flipSweep measures the differing-bit ratio for every single-bit change
// of material; stream produces the keystream for a flipped copy.
func flipSweep(material []byte, base []byte, stream func(flipped []byte) []byte) []float64 {
	ratios := make([]float64, len(material)*8)
	for bit := range ratios {
		flipped := append([]byte(nil), material...)
		flipped[bit/8] ^= 1 << uint(bit%8)
		ratios[bit] = diffRatio(base, stream(flipped))
	}
	return ratios
}

func meanStd(vals []float64) (mean, std float64) {
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	for _, v := range vals {
		std += (v - mean) * (v - mean)
	}
	std = math.Sqrt(std / float64(len(vals)))
	return
}

func toBarItems(vals []float64) []opts.BarData {
	out := make([]opts.BarData, len(vals))
	for i, v := range vals {
		out[i] = opts.BarData{Value: v}
	}
	return out
}

func newSweepChart(title string, ratios []float64) *charts.Bar {
	mean, std := meanStd(ratios)
	xLabels := make([]string, len(ratios))
	for i := range xLabels {
		xLabels[i] = fmt.Sprintf("%d", i)
	}
	bar := charts.NewBar()
	subtitle := fmt.Sprintf("n=%d, mean=%.4f, std=%.4f (ideal mean 0.5)", len(ratios), mean, std)
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "400px"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}, opts.DataZoom{Type: "slider"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(xLabels).
		AddSeries("diff ratio", toBarItems(ratios)).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}))
	return bar
}

func main() {
	flag.Parse()

	if *cipherBits != 128 && *cipherBits != 256 {
		log.Fatalf("bad cipher strength %d; must be 128 or 256", *cipherBits)
	}
	if *sampleLen <= 0 || *sampleLen%128 != 0 {
		log.Fatalf("sample length must be a positive multiple of 128 bytes")
	}

	klen := *cipherBits / 8
	key := make([]byte, klen)
	iv := make([]byte, klen)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("rand: %v", err)
	}
	if _, err := rand.Read(iv); err != nil {
		log.Fatalf("rand: %v", err)
	}

	base := keystream(key, iv, *sampleLen)

	keyRatios := flipSweep(key, base, func(flipped []byte) []byte {
		return keystream(flipped, iv, *sampleLen)
	})
	ivRatios := flipSweep(iv, base, func(flipped []byte) []byte {
		return keystream(key, flipped, *sampleLen)
	})

	page := components.NewPage()
	page.AddCharts(
		newSweepChart(fmt.Sprintf("key bit flips (%d-bit)", *cipherBits), keyRatios),
		newSweepChart(fmt.Sprintf("IV bit flips (%d-bit)", *cipherBits), ivRatios),
	)

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("create html: %v", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		log.Fatalf("render html: %v", err)
	}

	km, ks := meanStd(keyRatios)
	im, is := meanStd(ivRatios)
	fmt.Printf("key flips: mean %.4f std %.4f\n", km, ks)
	fmt.Printf("iv flips:  mean %.4f std %.4f\n", im, is)
	fmt.Println("Chart page:", *outPath)
}
