package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"ccdepot/internal/app/bootstrap"
	"ccdepot/internal/platform/config"

	"github.com/spf13/cobra"
)

type runtimeBuilder func(ctx context.Context) (*bootstrap.Runtime, error)

func defaultRuntime(ctx context.Context) (*bootstrap.Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return bootstrap.BuildRuntime(ctx, cfg, bootstrap.NewLogger(cfg, "ccctl"))
}

// cli owns the runtime for a single command invocation.
type cli struct {
	build   runtimeBuilder
	rt      *bootstrap.Runtime
	actorID string
}

// execute runs one command line. The runtime is released even when the
// command fails.
func execute(ctx context.Context, build runtimeBuilder, args []string, out io.Writer, errOut io.Writer) error {
	c := &cli{build: build}
	root := c.newRootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	runErr := root.ExecuteContext(ctx)
	return errors.Join(runErr, c.close(ctx))
}

func (c *cli) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ccctl",
		Short:        "Manage item licenses, batch scripts and roles",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.build(cmd.Context())
			if err != nil {
				return fmt.Errorf("build runtime: %w", err)
			}
			c.rt = rt
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&c.actorID, "user", "u", "", "Acting user id")

	root.AddCommand(
		c.newLicenseCmd(),
		c.newScriptsCmd(),
		c.newAuthzCmd(),
	)
	return root
}

// close drains scripts started by this invocation before releasing connections.
func (c *cli) close(ctx context.Context) error {
	if c.rt == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	err := errors.Join(c.rt.Scripts.Executor.Shutdown(shutdownCtx), c.rt.Close())
	c.rt = nil
	return err
}

func (c *cli) requireActor() (string, error) {
	actor := strings.TrimSpace(c.actorID)
	if actor == "" {
		return "", errors.New("--user is required")
	}
	return actor, nil
}

func printJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
