package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/mandi-setu/parchi-cli/internal/export"
	"github.com/mandi-setu/parchi-cli/internal/model"
	"github.com/mandi-setu/parchi-cli/internal/store"
)

var (
	parchisStatus string
	parchisSince  time.Duration
	parchisLimit  int
	parchisOffset int
)

var parchisCmd = &cobra.Command{
	Use:   "parchis",
	Short: "Inspect and manage stored parchis",
}

var parchisListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored parchis, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		filter := store.ParchiFilter{
			Status: model.ParchiStatus(parchisStatus),
			Limit:  parchisLimit,
			Offset: parchisOffset,
		}
		if parchisSince > 0 {
			since := time.Now().UTC().Add(-parchisSince)
			filter.Since = &since
		}

		parchis, err := st.ListParchis(ctx, filter)
		if err != nil {
			return err
		}
		if len(parchis) == 0 {
			fmt.Println("No parchis found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPRODUCT\tQTY\tUNIT\tTOTAL\tCESS\tPAYABLE\tSTATUS\tCREATED")
		for _, p := range parchis {
			t := p.TradeData
			fmt.Fprintf(w, "%s\t%s\t%g\t%s\t%.2f\t%.2f\t%.2f\t%s\t%s\n",
				truncateID(p.ID), t.ProductName, t.Quantity, t.Unit,
				t.TotalAmount, t.MandiCess, t.FinalAmount,
				p.Status, p.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		w.Flush()

		s := export.Summarize(parchis)
		fmt.Printf("\n%d parchis counted, total ₹%.2f, cess ₹%.2f, payable ₹%.2f, average trade ₹%.2f\n",
			s.Count, s.TotalAmount, s.TotalCess, s.TotalPayable, s.AverageTrade)
		return nil
	},
}

var parchisGetCmd = &cobra.Command{
	Use:   "get <parchi-id>",
	Short: "Print one parchi as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		parchi, err := st.GetParchi(ctx, args[0])
		if err != nil {
			return err
		}
		if parchi == nil {
			return eris.Errorf("parchi %s not found", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(parchi)
	},
}

var parchisCancelCmd = &cobra.Command{
	Use:   "cancel <parchi-id>",
	Short: "Cancel a parchi",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		parchi, err := st.GetParchi(ctx, args[0])
		if err != nil {
			return err
		}
		if parchi == nil {
			return eris.Errorf("parchi %s not found", args[0])
		}
		if parchi.Status == model.ParchiStatusCancelled {
			return eris.Errorf("parchi %s is already cancelled", args[0])
		}

		status := model.ParchiStatusCancelled
		found, err := st.UpdateParchi(ctx, args[0], store.ParchiUpdate{Status: &status})
		if err != nil {
			return err
		}
		if !found {
			return eris.Errorf("parchi %s not found", args[0])
		}

		fmt.Printf("Parchi %s cancelled.\n", args[0])
		return nil
	},
}

func init() {
	parchisListCmd.Flags().StringVar(&parchisStatus, "status", "", "filter by status (DRAFT, COMPLETED, CANCELLED)")
	parchisListCmd.Flags().DurationVar(&parchisSince, "since", 0, "only parchis created within this window (e.g. 24h)")
	parchisListCmd.Flags().IntVar(&parchisLimit, "limit", 0, "maximum number of parchis to list")
	parchisListCmd.Flags().IntVar(&parchisOffset, "offset", 0, "number of parchis to skip")

	parchisCmd.AddCommand(parchisListCmd)
	parchisCmd.AddCommand(parchisGetCmd)
	parchisCmd.AddCommand(parchisCancelCmd)
	rootCmd.AddCommand(parchisCmd)
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
