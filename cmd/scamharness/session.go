package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/scam-harness/internal/app/conversation"
	"github.com/PabloGalante/scam-harness/internal/app/intel"
	"github.com/PabloGalante/scam-harness/internal/domain"
)

var (
	exportPath string
	sender     string
	autoMode   bool
)

var playCmd = &cobra.Command{
	Use:   "play [scenario]",
	Short: "Replay a scripted scenario and print the conversation",
	Long: `Starts a fresh session, replays every message of the scenario with the
configured spacing and waits until the last answer has been merged.

Example:
  scamharness play "UPI Fraud" --mock --export out.json`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

var sendCmd = &cobra.Command{
	Use:   "send [text]",
	Short: "Send a single message and print the verdict",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSend,
}

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the replayable scenarios",
	Args:  cobra.NoArgs,
	RunE:  runScenarios,
}

func init() {
	for _, c := range []*cobra.Command{playCmd, sendCmd} {
		c.Flags().StringVarP(&exportPath, "export", "o", "", "write the session export to this file (- for stdout)")
		c.Flags().BoolVar(&autoMode, "auto", false, "delay agent replies as in auto mode")
	}
	sendCmd.Flags().StringVar(&language, "language", "", "session language")
	sendCmd.Flags().StringVar(&channel, "channel", "", "session channel")
	sendCmd.Flags().StringVar(&sender, "sender", string(domain.SenderScammer), "scammer or agent")
}

func runPlay(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.SetAutoMode(autoMode || cfg.AutoMode); err != nil {
		return err
	}

	sc, err := svc.Catalog().Get(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	states, unsubscribe := svc.Subscribe(64)
	defer unsubscribe()

	id, err := svc.Play(ctx, sc)
	if err != nil {
		return err
	}

	printed := 0
	for done := false; !done; {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case st, ok := <-states:
			if !ok {
				return nil
			}
			if st.Session.ID != id {
				continue
			}
			for ; printed < len(st.Messages); printed++ {
				printMessage(out, st.Messages[printed])
			}
			// every scripted turn answered and no agent reply still pending
			done = len(st.Ledger) >= len(sc.Messages) && st.InFlight == 0 && svc.PendingTurns() == 0
		}
	}

	st := svc.State()
	printSummary(out, st)
	return writeExport(out, svc)
}

func runSend(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.SetAutoMode(autoMode || cfg.AutoMode); err != nil {
		return err
	}

	text := strings.Join(args, " ")
	err = svc.SendMessage(cmd.Context(), text, domain.Sender(sender))
	if err != nil && !errors.Is(err, domain.ErrNetworkFailure) {
		return err
	}

	// an auto-mode reply shows up after its delay
	if svc.PendingTurns() > 0 {
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.AutoReplyDelay+time.Second)
		defer cancel()
		waitIdle(ctx, svc)
	}

	out := cmd.OutOrStdout()
	st := svc.State()
	for _, m := range st.Messages {
		printMessage(out, m)
	}
	printSummary(out, st)
	if werr := writeExport(out, svc); werr != nil {
		return werr
	}
	return err
}

func waitIdle(ctx context.Context, svc *conversation.Service) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for svc.PendingTurns() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func runScenarios(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLANGUAGE\tCHANNEL\tMESSAGES")
	for _, sc := range svc.Scenarios() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", sc.Name, sc.Language, sc.Channel, len(sc.Messages))
	}
	return tw.Flush()
}

func printMessage(w io.Writer, m domain.Message) {
	fmt.Fprintf(w, "[%s] %-7s %s\n", m.Timestamp.Format("15:04:05"), m.Sender, m.Text)
}

func printSummary(w io.Writer, st conversation.State) {
	v := st.Verdict
	fmt.Fprintf(w, "\nsession      %s (%s, %s)\n", st.Session.ID, st.Session.Language, st.Session.Channel)
	fmt.Fprintf(w, "probability  %.0f%% (%s)\n", v.ScamProbability*100, intel.Band(v.ScamProbability))
	fmt.Fprintf(w, "agent active %t\n", v.AgentActive)
	if len(v.Keywords) > 0 {
		fmt.Fprintf(w, "keywords     %s\n", strings.Join(v.Keywords, ", "))
	}

	in := st.Intelligence
	for _, row := range []struct {
		label string
		items []string
	}{
		{"upi ids", in.UPIIDs},
		{"accounts", in.BankAccounts},
		{"phones", in.PhoneNumbers},
		{"links", in.PhishingLinks},
	} {
		if len(row.items) > 0 {
			fmt.Fprintf(w, "%-12s %s\n", row.label, strings.Join(row.items, ", "))
		}
	}

	fmt.Fprintf(w, "api calls    %d (%d ok)\n", len(st.Ledger), st.Successes)
	if st.Notice != "" {
		fmt.Fprintf(w, "notice       %s\n", st.Notice)
	}
}

func writeExport(stdout io.Writer, svc *conversation.Service) error {
	if exportPath == "" {
		return nil
	}

	exp := svc.Export()
	raw, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}

	if exportPath == "-" {
		_, err := fmt.Fprintln(stdout, string(raw))
		return err
	}
	if err := os.WriteFile(exportPath, raw, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(stdout, "export       %s\n", exportPath)
	return nil
}
