// Command simulate runs a Monte Carlo check of the crash-point law:
// with a fixed cash-out target the return to player converges to 1 - house edge.
//
//	simulate -rounds 1000000 -target 2 -edge 0.04 -seed 42
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/Ashenafi-pixel/aviator-crash/games/crash"

	"go.uber.org/zap"
)

func main() {
	rounds := flag.Int("rounds", 1_000_000, "number of rounds to simulate")
	target := flag.Float64("target", 2.0, "cash-out target multiplier")
	profilePath := flag.String("profile", "", "optional YAML crash profile")
	edge := flag.Float64("edge", 0, "house edge override (0 keeps the profile value)")
	seed := flag.Uint64("seed", 0, "PCG seed for a reproducible run (0 uses crypto/rand)")
	asJSON := flag.Bool("json", false, "print stats as JSON")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	profile, err := crash.LoadProfile(*profilePath)
	if err != nil {
		log.Fatal("load profile", zap.Error(err))
	}
	if *edge != 0 {
		profile.HouseEdge = *edge
	}
	src := crash.CryptoSource()
	if *seed != 0 {
		src = crash.NewSeededSource(*seed)
	}

	st, err := crash.Simulate(crash.SimParams{
		Rounds:    *rounds,
		Target:    *target,
		HouseEdge: profile.HouseEdge,
		Source:    src,
	})
	if err != nil {
		log.Fatal("simulate", zap.Error(err))
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(st)
		return
	}
	fmt.Printf("rounds          %d\n", st.Rounds)
	fmt.Printf("target          %.2fx\n", st.Target)
	fmt.Printf("house edge      %.4f (expected RTP %.4f)\n", profile.HouseEdge, 1-profile.HouseEdge)
	fmt.Printf("RTP             %.4f\n", st.RTP)
	fmt.Printf("win rate        %.4f\n", st.WinRate)
	fmt.Printf("instant crashes %.4f (crash at 1.00 %.4f)\n", st.InstantCrashRate, st.MinCrashRate)
	fmt.Printf("crash point     p50 %.2fx  p90 %.2fx  p99 %.2fx\n", st.P50, st.P90, st.P99)
}
