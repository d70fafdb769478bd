// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vqtrack/vqtrack/internal/domain"
	"github.com/vqtrack/vqtrack/internal/report"
	"github.com/vqtrack/vqtrack/internal/stats"
	"github.com/vqtrack/vqtrack/internal/store/local"
)

type filterFlags struct {
	start string
	end   string
	area  string
	vin   string
	scope string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "range start (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&f.end, "end", "", "range end (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&f.area, "area", "", "work area filter (default all)")
	cmd.Flags().StringVar(&f.vin, "vin", "", "VIN substring filter")
	cmd.Flags().StringVar(&f.scope, "scope", "", "chart scope: SELECTED or GENERAL")
}

func (f *filterFlags) toFilter(now time.Time) (stats.Filter, error) {
	start := now
	if f.start != "" {
		parsed, err := time.ParseInLocation("2006-01-02", f.start, now.Location())
		if err != nil {
			return stats.Filter{}, fmt.Errorf("invalid start date %q", f.start)
		}
		start = parsed
	}
	end := now
	if f.end != "" {
		parsed, err := time.ParseInLocation("2006-01-02", f.end, now.Location())
		if err != nil {
			return stats.Filter{}, fmt.Errorf("invalid end date %q", f.end)
		}
		end = parsed
	}
	if end.Before(start) {
		return stats.Filter{}, errors.New("end date before start date")
	}

	area, err := resolveArea(f.area)
	if err != nil {
		return stats.Filter{}, err
	}

	scope := stats.ScopeSelected
	if strings.EqualFold(strings.TrimSpace(f.scope), string(stats.ScopeGeneral)) {
		scope = stats.ScopeGeneral
	}

	return stats.Filter{
		StartDate:  start,
		EndDate:    end,
		Area:       area,
		VINQuery:   f.vin,
		ChartScope: scope,
	}, nil
}

func computeFiltered(store *local.Store, f stats.Filter) (stats.Statistics, error) {
	pass, err := store.ListPassRecords()
	if err != nil {
		return stats.Statistics{}, err
	}
	defects, err := store.ListDefectRecords()
	if err != nil {
		return stats.Statistics{}, err
	}
	downtime, err := store.ListDowntimeRecords()
	if err != nil {
		return stats.Statistics{}, err
	}
	return stats.Compute(pass, defects, downtime, f), nil
}

func newStatsCmd() *cobra.Command {
	var flags filterFlags
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the dashboard statistics as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := flags.toFilter(time.Now())
			if err != nil {
				return err
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			s, err := computeFiltered(store, f)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		},
	}
	flags.register(cmd)
	return cmd
}

func newExportCmd() *cobra.Command {
	export := &cobra.Command{
		Use:   "export",
		Short: "Render the standard report files",
	}

	var outDir string
	export.PersistentFlags().StringVar(&outDir, "out", ".", "output directory")

	writeFile := func(cmd *cobra.Command, data []byte, name string) error {
		path := filepath.Join(outDir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	}

	var xlsxFlags filterFlags
	var xlsxLabel string
	xlsx := &cobra.Command{
		Use:   "xlsx",
		Short: "Export the filtered records as a workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			f, err := xlsxFlags.toFilter(now)
			if err != nil {
				return err
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			s, err := computeFiltered(store, f)
			if err != nil {
				return err
			}
			data, name, err := report.Excel(s, f.Area, xlsxLabel, now)
			if err != nil {
				return err
			}
			return writeFile(cmd, data, name)
		},
	}
	xlsxFlags.register(xlsx)
	xlsx.Flags().StringVar(&xlsxLabel, "period-label", "", "label embedded in the file name (default Diario)")

	var chatFlags filterFlags
	chat := &cobra.Command{
		Use:   "chat",
		Short: "Print the shareable chat summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			f, err := chatFlags.toFilter(now)
			if err != nil {
				return err
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			s, err := computeFiltered(store, f)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.ChatSummary(s, f.Area, now))
			return nil
		},
	}
	chatFlags.register(chat)

	var deckPeriod, deckArea string
	deck := &cobra.Command{
		Use:   "deck",
		Short: "Export the period summary deck as PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			period := report.Period(strings.ToUpper(strings.TrimSpace(deckPeriod)))
			if period == "" {
				period = report.PeriodWeekly
			}
			if !report.ValidPeriod(period) {
				return fmt.Errorf("invalid period %q", deckPeriod)
			}
			area, err := resolveArea(deckArea)
			if err != nil {
				return err
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			start := now.AddDate(0, 0, -period.Days())
			s, err := computeFiltered(store, stats.Filter{
				StartDate: start,
				EndDate:   now,
				Area:      area,
			})
			if err != nil {
				return err
			}
			data, name, err := report.Deck(s, area, period, start, now)
			if err != nil {
				return err
			}
			return writeFile(cmd, data, name)
		},
	}
	deck.Flags().StringVar(&deckPeriod, "period", "WEEKLY", "WEEKLY, MONTHLY or ANNUAL")
	deck.Flags().StringVar(&deckArea, "area", "", "work area filter (default all)")

	var dossierVIN string
	dossier := &cobra.Command{
		Use:   "dossier",
		Short: "Export a vehicle inspection dossier as PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if strings.TrimSpace(dossierVIN) == "" {
				return errors.New("--vin is required")
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			s, err := computeFiltered(store, stats.Filter{
				EndDate:  now,
				Area:     domain.AreaAll,
				VINQuery: dossierVIN,
			})
			if err != nil {
				return err
			}
			data, name, err := report.VINDossier(s.VINHistory, dossierVIN, now)
			if err != nil {
				return err
			}
			return writeFile(cmd, data, name)
		},
	}
	dossier.Flags().StringVar(&dossierVIN, "vin", "", "vehicle identification number")

	var logFlags filterFlags
	var logOperator string
	operatorLog := &cobra.Command{
		Use:   "operator-log",
		Short: "Export an operator activity sheet as PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			operator := resolveOperator(logOperator)
			if strings.TrimSpace(operator) == "" {
				return errors.New("--operator is required")
			}
			f, err := logFlags.toFilter(now)
			if err != nil {
				return err
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			s, err := computeFiltered(store, f)
			if err != nil {
				return err
			}
			data, name, err := report.OperatorLog(s.FilteredPass, s.FilteredDefects, operator, now)
			if err != nil {
				return err
			}
			return writeFile(cmd, data, name)
		},
	}
	logFlags.register(operatorLog)
	operatorLog.Flags().StringVar(&logOperator, "operator", "", "operator badge id (defaults to the configured one)")

	export.AddCommand(xlsx, chat, deck, dossier, operatorLog)
	return export
}
