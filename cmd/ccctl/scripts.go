package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	scripthttp "ccdepot/contexts/internal-ops/script-runner-service/transport/http"

	"github.com/spf13/cobra"
)

const processPollInterval = 50 * time.Millisecond

func (c *cli) newScriptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scripts",
		Short: "List and run batch scripts",
	}
	cmd.AddCommand(c.newScriptsList(), c.newScriptsRun())
	return cmd
}

func (c *cli) newScriptsList() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered scripts and their options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			actor, err := c.requireActor()
			if err != nil {
				return err
			}
			resp, err := c.rt.Scripts.Handler.ListScriptsHandler(cmd.Context(), actor)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func (c *cli) newScriptsRun() *cobra.Command {
	var (
		params    []string
		inputPath string
	)
	cmd := &cobra.Command{
		Use:   "run SCRIPT",
		Short: "Run a script and wait for it to finish",
		Long: "Run SCRIPT in this process and wait for a terminal status. The process log\n" +
			"goes to stderr and any CSV output to stdout.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := c.requireActor()
			if err != nil {
				return err
			}
			req := scripthttp.StartProcessRequest{Parameters: map[string]string{}}
			for _, param := range params {
				key, value, ok := strings.Cut(param, "=")
				if !ok || strings.TrimSpace(key) == "" {
					return fmt.Errorf("invalid --param %q, want key=value", param)
				}
				req.Parameters[strings.TrimSpace(key)] = value
			}
			if inputPath != "" {
				raw, err := os.ReadFile(inputPath)
				if err != nil {
					return err
				}
				req.Input = string(raw)
			}

			handler := c.rt.Scripts.Handler
			started, err := handler.StartProcessHandler(cmd.Context(), actor, args[0], req)
			if err != nil {
				return err
			}
			process, err := c.waitForProcess(cmd.Context(), actor, started.Process.ProcessID)
			if err != nil {
				return err
			}
			for _, line := range process.Log {
				fmt.Fprintln(cmd.ErrOrStderr(), line)
			}
			if process.HasOutput {
				output, err := handler.GetProcessOutputHandler(cmd.Context(), actor, process.ProcessID)
				if err != nil {
					return err
				}
				if _, err := cmd.OutOrStdout().Write(output); err != nil {
					return err
				}
			}
			if process.Status != "completed" {
				return fmt.Errorf("process %s %s: %s", process.ProcessID, process.Status, process.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Script parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&inputPath, "input", "", "CSV file passed to the script")
	return cmd
}

// waitForProcess polls until the process leaves scheduled/running. An
// interrupted wait cancels the process.
func (c *cli) waitForProcess(ctx context.Context, actor string, processID string) (scripthttp.ProcessDTO, error) {
	handler := c.rt.Scripts.Handler
	ticker := time.NewTicker(processPollInterval)
	defer ticker.Stop()
	for {
		resp, err := handler.GetProcessHandler(context.WithoutCancel(ctx), actor, processID)
		if err != nil {
			return scripthttp.ProcessDTO{}, err
		}
		switch resp.Process.Status {
		case "scheduled", "running":
		default:
			return resp.Process, nil
		}
		select {
		case <-ctx.Done():
			_, cancelErr := handler.CancelProcessHandler(context.WithoutCancel(ctx), actor, processID)
			return scripthttp.ProcessDTO{}, errors.Join(ctx.Err(), cancelErr)
		case <-ticker.C:
		}
	}
}
