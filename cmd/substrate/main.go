// Copyright 2026 The Substrate Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/resonance-foundation/substrate/lib/alloc"
	"github.com/resonance-foundation/substrate/lib/clock"
	"github.com/resonance-foundation/substrate/lib/codec"
	"github.com/resonance-foundation/substrate/lib/domain"
	"github.com/resonance-foundation/substrate/lib/proof"
	"github.com/resonance-foundation/substrate/lib/witness"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch args[0] {
	case "exercise":
		return runExercise(args[1:])
	case "export":
		return runExport(args[1:])
	case "keygen":
		return runKeygen()
	case "help", "-h", "--help":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "error: unknown subcommand %q\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `usage: substrate <subcommand> [flags]

subcommands:
  exercise   run a scripted domain workload and print statistics
  export     emit a packed (optionally sealed) proof bundle
  keygen     generate an age keypair for bundle sealing
`)
}

// resolveConfig loads the config named by --config / SUBSTRATE_CONFIG,
// or the defaults when neither is set.
func resolveConfig(path string) (Config, error) {
	if path == "" {
		path = os.Getenv("SUBSTRATE_CONFIG")
	}
	if path == "" {
		return defaultConfig(), nil
	}
	return loadConfig(path)
}

// buildManager wires the substrate stack: real clock, witness
// generator, allocator, domain manager.
func buildManager(regionSize uint64) (*alloc.Allocator, *domain.Manager) {
	realClock := clock.Real()
	generator := witness.NewGenerator(realClock)
	allocator := alloc.New(generator)
	return allocator, domain.NewManager(allocator, generator, realClock, regionSize)
}

func runExercise(args []string) int {
	flags := pflag.NewFlagSet("exercise", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to YAML config")
	domains := flags.Int("domains", 4, "number of domains to create")
	if err := flags.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	config, err := resolveConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	if *domains < 2 {
		fmt.Fprintln(os.Stderr, "error: --domains must be at least 2")
		return 2
	}

	allocator, manager := buildManager(config.RegionSize)

	created := make([]*domain.Domain, 0, *domains)
	for i := 0; i < *domains; i++ {
		d, err := manager.Create(40)
		if err != nil {
			slog.Error("domain creation failed", "error", err)
			return 1
		}
		created = append(created, d)
		slog.Info("created domain", "id", d.ID, "budget", d.Budget, "state", d.State())
	}

	// Transfer, fork, merge, verify.
	if err := manager.TransferBudget(created[0], created[1], 15); err != nil {
		slog.Error("transfer failed", "error", err)
		return 1
	}
	child, err := manager.Fork(created[1], 20)
	if err != nil {
		slog.Error("fork failed", "error", err)
		return 1
	}
	created = append(created, child)
	slog.Info("forked child", "id", child.ID, "budget", child.Budget, "parent", created[1].ID)

	combined, err := manager.Merge(created[0], child)
	if err != nil {
		slog.Error("merge failed", "error", err)
		return 1
	}
	created = append(created, combined)
	slog.Info("merged domains", "id", combined.ID, "budget", combined.Budget)

	for _, d := range created {
		proofWitness := manager.ExportProof(d)
		if !manager.VerifyWitnessChain(d) {
			slog.Error("witness verification failed", "id", d.ID)
			return 1
		}
		slog.Info("verified domain", "id", d.ID,
			"conserved", manager.SyncConservation(d),
			"witness", proofWitness.FormatDigest()[:12])
	}

	// Bump-pool workload.
	pool, err := alloc.NewPool(allocator, config.PoolPages)
	if err != nil {
		slog.Error("pool creation failed", "error", err)
		return 1
	}
	allocations := 0
	for {
		if _, err := pool.Alloc(1024); err != nil {
			break
		}
		allocations++
	}
	slog.Info("pool exhausted", "allocations", allocations, "remaining", pool.Remaining())
	pool.Close()

	for _, d := range created {
		manager.Destroy(d)
	}

	stats := allocator.Stats()
	slog.Info("allocator statistics",
		"allocated", stats.Allocated, "peak", stats.Peak, "witnesses", stats.Witnesses)
	if stats.Allocated != 0 || stats.Witnesses != 0 {
		slog.Error("leak detected after teardown",
			"allocated", stats.Allocated, "witnesses", stats.Witnesses)
		return 1
	}
	return 0
}

func runExport(args []string) int {
	flags := pflag.NewFlagSet("export", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to YAML config")
	links := flags.Int("links", 3, "witness chain length to export")
	diagnose := flags.Bool("diagnose", false, "print the bundle in CBOR diagnostic notation to stderr")
	if err := flags.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	config, err := resolveConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	if *links < 1 {
		fmt.Fprintln(os.Stderr, "error: --links must be at least 1")
		return 2
	}

	_, manager := buildManager(config.RegionSize)
	d, err := manager.Create(0)
	if err != nil {
		slog.Error("domain creation failed", "error", err)
		return 1
	}
	defer manager.Destroy(d)

	// Evolve the region between links so the chain records distinct
	// commitments.
	var head *witness.ChainNode
	for i := 0; i < *links; i++ {
		d.Region[i%len(d.Region)] ^= 0x60
		head = witness.Chain(manager.ExportProof(d), head)
	}

	encoded, err := proof.Build(d.ID, head).Encode()
	if err != nil {
		slog.Error("bundle encoding failed", "error", err)
		return 1
	}
	if *diagnose {
		notation, err := codec.Diagnose(encoded)
		if err != nil {
			slog.Error("bundle diagnostics failed", "error", err)
			return 1
		}
		fmt.Fprintln(os.Stderr, notation)
	}
	packed, err := proof.Pack(encoded, compressionTag(config.Compression))
	if err != nil {
		slog.Error("bundle packing failed", "error", err)
		return 1
	}

	if len(config.Recipients) == 0 {
		if _, err := os.Stdout.Write(packed); err != nil {
			slog.Error("writing bundle", "error", err)
			return 1
		}
		slog.Info("exported unsealed bundle", "bytes", len(packed), "links", *links)
		return 0
	}

	sealed, err := proof.Seal(packed, config.Recipients)
	if err != nil {
		slog.Error("bundle sealing failed", "error", err)
		return 1
	}
	fmt.Println(sealed)
	slog.Info("exported sealed bundle",
		"recipients", len(config.Recipients), "links", *links)
	return 0
}

func runKeygen() int {
	publicKey, privateKey, err := proof.GenerateRecipient()
	if err != nil {
		slog.Error("keypair generation failed", "error", err)
		return 1
	}
	fmt.Printf("# public key: %s\n%s\n", publicKey, privateKey)
	return 0
}

// compressionTag maps a config name to its tag; validation happened
// at config load.
func compressionTag(name string) proof.CompressionTag {
	switch name {
	case "lz4":
		return proof.CompressionLZ4
	case "none":
		return proof.CompressionNone
	default:
		return proof.CompressionZstd
	}
}
