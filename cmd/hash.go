package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crestline-group/recon-cli/internal/identity"
)

var hashSalt string

var hashCmd = &cobra.Command{
	Use:   "hash <file>",
	Short: "Hash a line-per-identifier file",
	Long:  "Normalizes and digests every line of the input and writes the digests to <file>.hashed, one per line. Lines holding a missing-value marker are skipped.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inPath := args[0]
		outPath := inPath + ".hashed"

		in, err := os.Open(inPath)
		if err != nil {
			return eris.Wrapf(err, "hash: open %s", inPath)
		}
		defer in.Close()

		out, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			return eris.Wrapf(err, "hash: refusing to overwrite or create %s", outPath)
		}
		defer out.Close()

		digester := identity.NewDigester(hashSalt)
		w := bufio.NewWriter(out)

		var written, skipped int
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			normalized, ok := identity.Normalize(scanner.Text())
			if !ok {
				skipped++
				continue
			}
			digest, err := digester.Digest(normalized)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(w, digest); err != nil {
				return eris.Wrapf(err, "hash: write %s", outPath)
			}
			written++
		}
		if err := scanner.Err(); err != nil {
			return eris.Wrapf(err, "hash: read %s", inPath)
		}
		if err := w.Flush(); err != nil {
			return eris.Wrapf(err, "hash: flush %s", outPath)
		}

		zap.L().Info("hash: file digested",
			zap.String("output", outPath),
			zap.Int("written", written),
			zap.Int("skipped", skipped),
			zap.Bool("salted", digester.Salted()),
		)
		fmt.Fprintf(os.Stdout, "%s: %d digests written, %d lines skipped\n", outPath, written, skipped)
		return nil
	},
}

func init() {
	hashCmd.Flags().StringVar(&hashSalt, "salt", "", "keyed-hash salt (default unsalted SHA-512)")
	rootCmd.AddCommand(hashCmd)
}
