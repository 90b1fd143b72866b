/*
 * TeenyJVM - A minimal Java bytecode interpreter
 */

// Command teenyjvm loads a single compiled .class file, locates its
// main method, and interprets it. Mirrors the shape of Jacobin's
// cli.go / main.go split -- argument handling, a Global config struct,
// and a single CLI entry point (run here, HandleCli there) -- but without the JVM-option
// table (-showversion, JAVA_TOOL_OPTIONS, and friends) a full JVM
// needs: this core takes exactly one positional argument, so that
// table has nowhere to attach.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"teenyjvm/classloader"
	"teenyjvm/errs"
	"teenyjvm/globals"
	"teenyjvm/heap"
	"teenyjvm/interpreter"
	"teenyjvm/intrinsics"
	"teenyjvm/shutdown"
	"teenyjvm/trace"
)

const entryMethodName = "main"
const entryMethodDescriptor = "([Ljava/lang/String;)V"

func main() {
	shutdown.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run builds and executes the root command against args, returning the
// process exit code. Splitting this out of main lets tests drive the
// whole CLI without calling os.Exit.
func run(args []string, stdout, stderr io.Writer) int {
	code := shutdown.OK
	root := newRootCommand(stdout, stderr, &code)
	if args == nil {
		// cobra reads os.Args[1:] when given nil args; keep "no arguments" literal.
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		return code
	}
	return code
}

func newRootCommand(stdout, stderr io.Writer, exitCode *int) *cobra.Command {
	traceLevel := trace.WARNING
	cmd := &cobra.Command{
		Use:           "teenyjvm <class file>",
		Short:         "Interpret a compiled .class file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, posArgs []string) error {
			return runClassFile(cmd.Root().Name(), posArgs[0], traceLevel, stdout, stderr, exitCode)
		},
	}
	cmd.Flags().IntVar(&traceLevel, "trace", trace.WARNING,
		"trace verbosity (0=severe, 1=warning, 2=info, 3=fine, 4=finest)")
	cmd.SetHelpFunc(func(*cobra.Command, []string) {
		fmt.Fprintln(stderr, usageLine(cmd))
	})
	originalArgsErr := cmd.Args
	cmd.Args = func(cmd *cobra.Command, posArgs []string) error {
		if err := originalArgsErr(cmd, posArgs); err != nil {
			*exitCode = shutdown.UsageException
			fmt.Fprintln(stderr, usageLine(cmd))
			return err
		}
		return nil
	}
	return cmd
}

func usageLine(cmd *cobra.Command) string {
	return fmt.Sprintf("USAGE: %s <class file>", cmd.Root().Name())
}

// runClassFile loads, parses, and executes the program at path,
// writing its println output to stdout and a single diagnostic line to
// stderr on failure. It sets *exitCode to the shutdown code matching
// the failure, or shutdown.OK on a successful void return from main.
func runClassFile(programName, path string, traceLevel int, stdout, stderr io.Writer, exitCode *int) error {
	g := globals.InitGlobals(programName)
	g.ClassFile = path
	g.TraceLevel = traceLevel
	trace.Level = globals.GetGlobalRef().TraceLevel
	trace.Trace("loading " + path)

	lc, err := classloader.LoadFile(path)
	if err != nil {
		*exitCode = classifyError(err)
		return reportFatal(stderr, err)
	}
	defer lc.Close()

	method, err := lc.FindMethod(entryMethodName, entryMethodDescriptor)
	if err != nil {
		*exitCode = classifyError(err)
		return reportFatal(stderr, err)
	}

	locals := make([]int32, method.MaxLocals)
	reg := intrinsics.NewRegistry(stdout)
	h := heap.New()

	result, err := interpreter.Execute(method, locals, lc.ClassFile, h, reg)
	if flushErr := reg.Flush(); err == nil {
		err = flushErr
	}
	if err != nil {
		*exitCode = classifyError(err)
		return reportFatal(stderr, err)
	}
	if result != nil {
		*exitCode = shutdown.RuntimeException
		return reportFatal(stderr, fmt.Errorf("main returned a value; expected void"))
	}

	*exitCode = shutdown.OK
	return nil
}

// reportFatal writes the one diagnostic line the CLI contract promises
// on stderr and narrates the same failure through trace.Error, the way
// Jacobin logs a fatal condition through its own trace package instead
// of an ad hoc fmt.Fprintln at the call site.
func reportFatal(stderr io.Writer, err error) error {
	fmt.Fprintln(stderr, "teenyjvm: "+err.Error())
	trace.Error(err.Error())
	return err
}

// classifyError maps an engine error to its shutdown exit code, the
// one place outside the decoder/interpreter that inspects error
// identity rather than just propagating it.
func classifyError(err error) int {
	switch {
	case errors.Is(err, errs.ErrMalformedClass):
		return shutdown.ClassFormatException
	case errors.Is(err, errs.ErrMethodNotFound):
		return shutdown.ClassFormatException
	case errors.Is(err, os.ErrNotExist):
		return shutdown.IOException
	default:
		return shutdown.RuntimeException
	}
}
