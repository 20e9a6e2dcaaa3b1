// Copyright 2026 The Ferrite Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/ferrite-os/ferrite/lib/appbin"
	"github.com/ferrite-os/ferrite/lib/codec"
	"github.com/ferrite-os/ferrite/lib/config"
	"github.com/ferrite-os/ferrite/lib/digest"
	"github.com/ferrite-os/ferrite/lib/loader"
	"github.com/ferrite-os/ferrite/lib/process"
	"github.com/ferrite-os/ferrite/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// exitError carries a specific exit code without an error message:
// the command already printed its output.
type exitError int

func (e exitError) Error() string { return fmt.Sprintf("exit code %d", int(e)) }
func (e exitError) ExitCode() int { return int(e) }

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return fmt.Errorf("subcommand required")
	}
	switch args[0] {
	case "list":
		return runList(args[1:])
	case "check":
		return runCheck(args[1:])
	case "seal":
		return runSeal(args[1:])
	case "version", "--version":
		fmt.Printf("ferrite-appcheck %s\n", version.Info())
		return nil
	case "help", "--help", "-h":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `usage: ferrite-appcheck <subcommand> [flags]

Subcommands:
  list <image>    parse an image and print its binaries and credentials
  check <image>   run the configured checking policy against an image
  seal <image>    append bare-hash credentials to every binary
  version         print version information
`)
}

// binaryReport is the machine-readable shape of one parsed binary,
// CBOR-encoded by list --cbor.
type binaryReport struct {
	Name        string         `cbor:"name"`
	Version     uint32         `cbor:"version"`
	TotalBytes  int            `cbor:"total_bytes"`
	Credentials []recordReport `cbor:"credentials"`
	FooterError string         `cbor:"footer_error,omitempty"`
}

type recordReport struct {
	Format    string `cbor:"format"`
	DataBytes int    `cbor:"data_bytes"`
}

// imageReports parses every binary in image into report form. A
// malformed footer is reported on its binary, not fatal: inspection
// tooling should show as much of a broken image as it can.
func imageReports(image []byte) ([]binaryReport, error) {
	var reports []binaryReport
	rest := image
	for {
		binary, next, err := appbin.ParseBinary(rest)
		if errors.Is(err, appbin.ErrNoBinary) {
			return reports, nil
		}
		if err != nil {
			return reports, fmt.Errorf("binary %d: %w", len(reports), err)
		}
		report := binaryReport{
			Name:       binary.Name,
			Version:    binary.Version,
			TotalBytes: len(binary.Image),
		}
		records, err := appbin.Records(binary.FooterRegion())
		if err != nil {
			report.FooterError = err.Error()
		}
		for _, record := range records {
			report.Credentials = append(report.Credentials, recordReport{
				Format:    record.Format().String(),
				DataBytes: len(record.Data()),
			})
		}
		reports = append(reports, report)
		rest = next
	}
}

func runList(args []string) error {
	flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
	cborOut := flagSet.Bool("cbor", false, "write a CBOR report to stdout instead of text")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return fmt.Errorf("usage: ferrite-appcheck list [--cbor] <image>")
	}

	image, err := os.ReadFile(flagSet.Arg(0))
	if err != nil {
		return err
	}
	reports, err := imageReports(image)
	if err != nil {
		return err
	}

	if *cborOut {
		data, err := codec.Marshal(reports)
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tBYTES\tCREDENTIALS")
	for _, report := range reports {
		fmt.Fprintf(w, "%s\t%d\t%d\t", report.Name, report.Version, report.TotalBytes)
		for i, record := range report.Credentials {
			if i > 0 {
				fmt.Fprint(w, ", ")
			}
			fmt.Fprintf(w, "%s(%d)", record.Format, record.DataBytes)
		}
		if report.FooterError != "" {
			fmt.Fprintf(w, " [footer corrupt: %s]", report.FooterError)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func runCheck(args []string) error {
	flagSet := pflag.NewFlagSet("check", pflag.ContinueOnError)
	configPath := flagSet.String("config", "", "config file (default: $"+config.EnvVar+")")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return fmt.Errorf("usage: ferrite-appcheck check [--config FILE] <image>")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	policy, err := cfg.BuildPolicy()
	if err != nil {
		return err
	}

	image, err := os.ReadFile(flagSet.Arg(0))
	if err != nil {
		return err
	}

	table, err := loader.Boot(context.Background(), image, loader.BootConfig{
		Capacity: cfg.TableCapacity,
		Policy:   policy,
		Logger:   cfg.Logger(),
	})
	if err != nil {
		return err
	}

	failed := 0
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tSTATE\tAPPID\tSHORTID")
	for i := 0; i < table.Len(); i++ {
		p := table.At(i)
		if p == nil {
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			p.Name(), p.Version(), p.State(), p.AppID(), p.ShortID())
		if p.State() == process.CredentialsFailed {
			failed++
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return exitError(1)
	}
	return nil
}

// sealImage rebuilds image with a bare-hash credential appended to
// every binary's footer. The digest covers the integrity region of
// the rebuilt entry, so the entry is laid out first with a
// placeholder record and the digest computed over the result; the
// record data has fixed length, so filling it in moves nothing.
func sealImage(image []byte, algorithm digest.Algorithm, format appbin.CredentialsFormat) ([]byte, error) {
	var specs []appbin.BinarySpec
	rest := image
	for {
		binary, next, err := appbin.ParseBinary(rest)
		if errors.Is(err, appbin.ErrNoBinary) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("binary %d: %w", len(specs), err)
		}
		records, err := appbin.Records(binary.FooterRegion())
		if err != nil {
			return nil, fmt.Errorf("%s: footer: %w", binary.Name, err)
		}
		specs = append(specs, appbin.BinarySpec{
			Name:    binary.Name,
			Version: binary.Version,
			Payload: binary.IntegrityRegion(),
			Records: append(records, appbin.NewCredentialsRecord(format, make([]byte, algorithm.Size()))),
		})
		rest = next
	}

	var sealed []byte
	for _, spec := range specs {
		entry, err := appbin.BuildBinary(spec)
		if err != nil {
			return nil, fmt.Errorf("%s: rebuilding: %w", spec.Name, err)
		}
		probe, _, err := appbin.ParseBinary(entry)
		if err != nil {
			return nil, fmt.Errorf("%s: reparsing: %w", spec.Name, err)
		}
		sum, err := digest.Compute(algorithm, probe.IntegrityRegion())
		if err != nil {
			return nil, err
		}
		spec.Records[len(spec.Records)-1] = appbin.NewCredentialsRecord(format, sum)
		entry, err = appbin.BuildBinary(spec)
		if err != nil {
			return nil, fmt.Errorf("%s: rebuilding: %w", spec.Name, err)
		}
		sealed = append(sealed, entry...)
	}
	return sealed, nil
}

func runSeal(args []string) error {
	flagSet := pflag.NewFlagSet("seal", pflag.ContinueOnError)
	out := flagSet.String("out", "", "output image path (required)")
	algorithmName := flagSet.String("hash", "sha256", "digest algorithm: sha256, sha384, or sha512")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 || *out == "" {
		return fmt.Errorf("usage: ferrite-appcheck seal --out FILE [--hash ALG] <image>")
	}

	algorithm, format, err := hashSelection(*algorithmName)
	if err != nil {
		return err
	}

	image, err := os.ReadFile(flagSet.Arg(0))
	if err != nil {
		return err
	}
	sealed, err := sealImage(image, algorithm, format)
	if err != nil {
		return err
	}
	return os.WriteFile(*out, sealed, 0644)
}

func hashSelection(name string) (digest.Algorithm, appbin.CredentialsFormat, error) {
	switch name {
	case "sha256":
		return digest.SHA256, appbin.FormatSHA256, nil
	case "sha384":
		return digest.SHA384, appbin.FormatSHA384, nil
	case "sha512":
		return digest.SHA512, appbin.FormatSHA512, nil
	default:
		return 0, 0, fmt.Errorf("unknown digest algorithm %q", name)
	}
}
