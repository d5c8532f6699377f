package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/scam-harness/internal/domain"
)

// remoteCmd talks to the detection service's session endpoints directly.
var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Inspect or reset a session held by the detection service",
}

var remoteGetCmd = &cobra.Command{
	Use:   "get [session-id]",
	Short: "Print the service's view of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemoteGet,
}

var remoteResetCmd = &cobra.Command{
	Use:   "reset [session-id]",
	Short: "Ask the service to forget a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemoteReset,
}

func init() {
	remoteCmd.AddCommand(remoteGetCmd, remoteResetCmd)
}

func runRemoteGet(cmd *cobra.Command, args []string) error {
	det, err := newDetector()
	if err != nil {
		return err
	}

	raw, err := det.GetSession(cmd.Context(), domain.SessionID(args[0]))
	if err != nil {
		return err
	}
	return printRaw(cmd, raw)
}

func runRemoteReset(cmd *cobra.Command, args []string) error {
	det, err := newDetector()
	if err != nil {
		return err
	}

	raw, err := det.ResetSession(cmd.Context(), domain.SessionID(args[0]))
	if err != nil {
		return err
	}
	return printRaw(cmd, raw)
}

func printRaw(cmd *cobra.Command, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		// not JSON; show it as is
		buf.Reset()
		buf.Write(raw)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), buf.String())
	return err
}
