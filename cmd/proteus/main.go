// Command proteus is a developer inspector for blueprint templates.
//
// Usage:
//
//	proteus <blueprint-file> [--max N] [--session key=value]...
//
// It loads the template, prints its structural fingerprint and
// mutation count, then the default render followed by the first N
// mutated renders as hex.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/proteus-fuzz/proteus/pkg/blueprint"
	"github.com/proteus-fuzz/proteus/pkg/model"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("proteus", flag.ContinueOnError)
	flags.SetOutput(out)

	maxRenders := flags.IntP("max", "n", 10, "maximum number of mutated renders to print (0 = all)")
	skip := flags.Int("skip", 0, "number of mutations to skip before printing")
	session := flags.StringArray("session", nil, "session data entry as key=value, repeatable")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}

		return err
	}

	if flags.NArg() != 1 {
		return fmt.Errorf("usage: proteus <blueprint-file> [flags]")
	}

	tree, err := blueprint.Load(flags.Arg(0))
	if err != nil {
		return err
	}

	data, err := parseSession(*session)
	if err != nil {
		return err
	}

	if len(data) > 0 {
		tree.SetSessionData(data)
	}

	return inspect(out, tree, *skip, *maxRenders)
}

func parseSession(entries []string) (map[string][]byte, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	data := make(map[string][]byte, len(entries))

	for _, e := range entries {
		key, value, ok := strings.Cut(e, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("bad --session entry %q, want key=value", e)
		}

		data[key] = []byte(value)
	}

	return data, nil
}

func inspect(out io.Writer, tree *model.Container, skip, maxRenders int) error {
	fmt.Fprintf(out, "template: %s\n", displayName(tree))
	fmt.Fprintf(out, "identity: %016x\n", tree.IdentityHash())
	fmt.Fprintf(out, "mutations: %d\n", tree.NumMutations())

	def, err := tree.Render()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "default: [%d bits] %x\n", def.Len(), def.Bytes())

	if skip > 0 {
		skipped := tree.Skip(skip)
		fmt.Fprintf(out, "skipped: %d\n", skipped)
	}

	printed := 0

	for tree.Mutate() {
		if maxRenders > 0 && printed >= maxRenders {
			break
		}

		r, err := tree.Render()
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "#%d: [%d bits] %x\n", skip+printed, r.Len(), r.Bytes())
		printed++
	}

	return nil
}

func displayName(tree *model.Container) string {
	if tree.Name() == "" {
		return "(unnamed)"
	}

	return tree.Name()
}
