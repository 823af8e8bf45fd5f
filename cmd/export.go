package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/mandi-setu/parchi-cli/internal/export"
	"github.com/mandi-setu/parchi-cli/internal/model"
	"github.com/mandi-setu/parchi-cli/internal/store"
)

var (
	exportFormat string
	exportOut    string
	exportUpload bool
	exportStatus string
	exportSince  time.Duration
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the parchi ledger as CSV or XLSX",
	Long: `Renders stored parchis as a ledger file with a trailing totals row.
The file is written locally and, with --upload, shipped to the committee's
configured FTP drop.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "ledger format: csv or xlsx")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path (default parchi-ledger-<date>.<format>)")
	exportCmd.Flags().BoolVar(&exportUpload, "upload", false, "upload the ledger to the configured FTP drop")
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "filter by status (DRAFT, COMPLETED, CANCELLED)")
	exportCmd.Flags().DurationVar(&exportSince, "since", 0, "only parchis created within this window (e.g. 24h)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	filter := store.ParchiFilter{Status: model.ParchiStatus(exportStatus)}
	if exportSince > 0 {
		since := time.Now().UTC().Add(-exportSince)
		filter.Since = &since
	}

	parchis, err := st.ListParchis(ctx, filter)
	if err != nil {
		return err
	}

	var data []byte
	switch exportFormat {
	case "csv":
		data, err = export.BuildCSV(parchis)
	case "xlsx":
		data, err = export.BuildXLSX(parchis)
	default:
		return eris.Errorf("export: unknown format %q (want csv or xlsx)", exportFormat)
	}
	if err != nil {
		return err
	}

	out := exportOut
	if out == "" {
		out = fmt.Sprintf("parchi-ledger-%s.%s", time.Now().UTC().Format("2006-01-02"), exportFormat)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return eris.Wrapf(err, "export: write %s", out)
	}

	s := export.Summarize(parchis)
	fmt.Printf("Wrote %s: %d parchis, total ₹%.2f, cess ₹%.2f, payable ₹%.2f\n",
		out, s.Count, s.TotalAmount, s.TotalCess, s.TotalPayable)

	if !exportUpload {
		return nil
	}
	uploader := export.NewFTPUploader(cfg.Export.FTPAddr, cfg.Export.FTPUser, cfg.Export.FTPPassword, cfg.Export.FTPDir)
	if err := uploader.Upload(ctx, out, data); err != nil {
		return err
	}
	fmt.Printf("Uploaded %s to %s\n", out, cfg.Export.FTPAddr)
	return nil
}
