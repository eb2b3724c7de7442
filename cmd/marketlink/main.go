package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/geocoder89/marketlink/internal/validate"
	"github.com/geocoder89/marketlink/internal/views/detail"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{out: stdout, errOut: stderr}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", errorText(err))
		return 1
	}
	return 0
}

// errorText is the one-line form of err shown to the user.
func errorText(err error) string {
	if fields, ok := validate.AsErrors(err); ok && len(fields) > 1 {
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			parts = append(parts, f.String())
		}
		return strings.Join(parts, "; ")
	}
	return detail.Message(err)
}
