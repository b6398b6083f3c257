package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/dockbridge/scenario"
)

func runScenarios(cmd *cobra.Command, args []string) error {
	if httpAddr != "" && (len(args) > 1 || watch) {
		return errors.New("--http-addr serves a single scenario without --watch")
	}
	ctx := cmd.Context()
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	err := playAll(ctx, out, errOut, args)
	if !watch {
		return err
	}
	if err != nil {
		fmt.Fprintln(errOut, err)
	}
	return watchFiles(ctx, args, func() {
		fmt.Fprintln(out, "\n== replay")
		if err := playAll(ctx, out, errOut, args); err != nil {
			fmt.Fprintln(errOut, err)
		}
	})
}

// playAll plays every scenario in its own world concurrently
// Output and logs are buffered per scenario and written in argument order
func playAll(ctx context.Context, out, errOut io.Writer, paths []string) error {
	results := make([]bytes.Buffer, len(paths))
	logs := make([]bytes.Buffer, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			return playOne(ctx, &results[i], &logs[i], path)
		})
	}
	err := g.Wait()

	for i := range paths {
		_, _ = out.Write(results[i].Bytes())
		_, _ = errOut.Write(logs[i].Bytes())
	}
	return err
}

func playOne(ctx context.Context, out, logOut io.Writer, path string) error {
	s, err := openSession(path, logOut)
	if err != nil {
		return err
	}
	defer s.close()

	r := s.runner
	fmt.Fprintf(out, "== %s\n%s", r.Scenario.Name, r.System.DebugSummary())

	for i, st := range r.Scenario.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := s.next()
		fmt.Fprintf(out, "\n-- step %d: %s\n%s", i, describeStep(st), r.System.DebugSummary())
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	printNodes(out, r)

	if httpAddr != "" {
		if err := s.serve(httpAddr); err != nil {
			return err
		}
		<-ctx.Done()
	}
	return nil
}

func describeStep(st scenario.Step) string {
	s := st.Action
	for _, part := range []string{st.A, st.B, st.Grid, st.Event} {
		if part != "" {
			s += " " + part
		}
	}
	return s
}

func printNodes(out io.Writer, r *scenario.Runner) {
	fmt.Fprintln(out)
	for _, spec := range r.Scenario.Entities {
		e, ok := r.Entity(spec.Name)
		if !ok || !r.World.Exists(e) {
			continue
		}
		fmt.Fprintf(out, "[%s] %s", spec.Name, r.System.DebugNode(e))
	}
	for _, d := range r.Scenario.Docks {
		e, _ := r.Entity(d.Name)
		grid, tile, ok := r.World.TileOf(e)
		if !ok {
			continue
		}
		fmt.Fprintf(out, "[%s] %s", d.Name, r.System.DebugTile(grid, tile))
	}
}
