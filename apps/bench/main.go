//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Command bench benchmarks the engine with a batch of SIMD
// multiplications, either between two processes over TCP or
// in-process over a pipe pair.
package main

import (
	"flag"
	"fmt"
	"log"
	"sync"

	"github.com/pkg/profile"

	"github.com/markkurossi/beavy"
	"github.com/markkurossi/beavy/backend"
	"github.com/markkurossi/beavy/circuit"
	"github.com/markkurossi/beavy/p2p"
	"github.com/markkurossi/beavy/stats"
)

func main() {
	party := flag.Int("party", -1,
		"party id (0 or 1); -1 runs both parties in-process")
	addr := flag.String("addr", "localhost:8080", "peer address")
	numSIMD := flag.Int("simd", 1024, "SIMD width of the multiplication")
	numMuls := flag.Int("muls", 16, "number of multiplication gates")
	verbose := flag.Bool("v", false, "verbose output")
	cpuprofile := flag.Bool("cpuprofile", false, "write a CPU profile")
	flag.Parse()

	if *cpuprofile {
		defer profile.Start(profile.ProfilePath(".")).Stop()
	}

	switch *party {
	case -1:
		c0, c1 := p2p.Pipe()
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(1, c1, *numSIMD, *numMuls, false); err != nil {
				log.Printf("party 1: %v", err)
			}
		}()
		if err := run(0, c0, *numSIMD, *numMuls, *verbose); err != nil {
			log.Fatal(err)
		}
		wg.Wait()

	case 0:
		conn, err := p2p.Listen(*addr)
		if err != nil {
			log.Fatal(err)
		}
		defer conn.Close()
		if err := run(0, conn, *numSIMD, *numMuls, *verbose); err != nil {
			log.Fatal(err)
		}

	case 1:
		conn, err := p2p.Dial(*addr)
		if err != nil {
			log.Fatal(err)
		}
		defer conn.Close()
		if err := run(1, conn, *numSIMD, *numMuls, *verbose); err != nil {
			log.Fatal(err)
		}

	default:
		log.Fatalf("invalid party id %d", *party)
	}
}

func run(id int, conn *p2p.Conn, numSIMD, numMuls int, report bool) error {
	cfg := &beavy.Config{
		PartyID: id,
	}
	timing := stats.NewTiming()

	b, err := backend.New(cfg, conn)
	if err != nil {
		return err
	}
	timing.Sample("Init", nil)

	p := circuit.NewProvider(cfg, b.Conn, b.Mux, b, b.OT, b.Arith,
		b.MyRNG, b.TheirRNG)

	inputs := make([]uint64, numSIMD)
	for i := range inputs {
		inputs[i] = uint64(id*1000000 + i)
	}

	var results []*circuit.Promise[[]uint64]
	for i := 0; i < numMuls; i++ {
		var wireA, wireB *circuit.ArithmeticWire[uint64]
		if id == 0 {
			var set func([]uint64)
			set, wireA, err = circuit.MakeArithmeticInputGateMine[uint64](
				p, numSIMD)
			if err != nil {
				return err
			}
			set(inputs)
			wireB, err = circuit.MakeArithmeticInputGateTheirs[uint64](
				p, numSIMD)
		} else {
			wireA, err = circuit.MakeArithmeticInputGateTheirs[uint64](
				p, numSIMD)
			if err != nil {
				return err
			}
			var set func([]uint64)
			set, wireB, err = circuit.MakeArithmeticInputGateMine[uint64](
				p, numSIMD)
			if err != nil {
				return err
			}
			set(inputs)
		}
		if err != nil {
			return err
		}
		product, err := circuit.MakeMULGate(p, wireA, wireB)
		if err != nil {
			return err
		}
		result, err := circuit.MakeArithmeticOutputGate(p, product,
			beavy.AllParties)
		if err != nil {
			return err
		}
		results = append(results, result)
	}
	timing.Sample("Build", nil)

	if err := b.RunPreprocessing(); err != nil {
		return err
	}
	timing.Sample("Preprocess", nil)

	if err := b.EvaluateParallel(); err != nil {
		return err
	}
	timing.Sample("Evaluate", nil)

	for _, result := range results {
		result.Get()
	}

	if report {
		fmt.Printf("%d multiplications, SIMD %d\n", numMuls, numSIMD)
		timing.Print(conn.Stats)
	}
	return nil
}
